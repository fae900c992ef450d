package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
)

// RunRepository defines the append-only reconciliation audit log
type RunRepository interface {
	// Append writes a new run record. Runs are never updated; a superseding
	// run references its predecessor and carries an incremented version.
	Append(ctx context.Context, tx DBTX, run *models.ReconciliationRun) error

	// GetByID retrieves a single run
	GetByID(ctx context.Context, db DBTX, id uuid.UUID) (*models.ReconciliationRun, error)

	// GetByChecksum finds a prior run for the same stage/acquirer with an
	// identical input checksum, used for reprocessing detection
	GetByChecksum(ctx context.Context, db DBTX, acquirerID string, stage models.Stage, checksum string) (*models.ReconciliationRun, error)

	// LatestForScope returns the newest run for (stage, acquirer, date)
	LatestForScope(ctx context.Context, db DBTX, acquirerID string, stage models.Stage, date time.Time) (*models.ReconciliationRun, error)

	// List pages through runs for an acquirer, newest first. Stage is
	// optional.
	List(ctx context.Context, db DBTX, acquirerID string, stage *models.Stage, limit, offset int32) ([]*models.ReconciliationRun, error)

	// NextVersion returns the next monotonic version for the scope
	NextVersion(ctx context.Context, db DBTX, acquirerID string, stage models.Stage, date time.Time) (int32, error)
}
