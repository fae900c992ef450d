package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
)

// ReceiptRepository defines persistence for validated Stage-2 receipt rows.
// Only detail rows are persisted; batch and bank rows exist solely for the
// cascade sums and live in the run summary.
type ReceiptRepository interface {
	// CreateDetails stores the detail rows of a validated cascade run
	CreateDetails(ctx context.Context, tx DBTX, runID uuid.UUID, details []*models.ReceiptDetail) error

	// ListByRun lists the detail rows persisted for a cascade run
	ListByRun(ctx context.Context, db DBTX, runID uuid.UUID) ([]*models.ReceiptDetail, error)
}
