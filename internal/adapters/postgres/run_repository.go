package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/ports"
)

// RunRepository implements the append-only audit log on PostgreSQL
type RunRepository struct {
	db ports.DBTX
}

// NewRunRepository creates a new run repository
func NewRunRepository(db ports.DBPort) *RunRepository {
	return &RunRepository{db: db.GetDB()}
}

const runColumns = `id, stage, acquirer_id, reference_date, input_checksum,
	verdict, divergences, summary, version, supersedes_id, initiated_by, created_at`

// Append writes a new run record. Runs are never updated.
func (r *RunRepository) Append(ctx context.Context, tx ports.DBTX, run *models.ReconciliationRun) error {
	_, err := executor(tx, r.db).Exec(ctx, `
		INSERT INTO reconciliation_runs
			(id, stage, acquirer_id, reference_date, input_checksum,
			 verdict, divergences, summary, version, supersedes_id, initiated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID, string(run.Stage), run.AcquirerID, run.ReferenceDate,
		run.InputChecksum, string(run.Verdict), run.Divergences, run.Summary,
		run.Version, run.SupersedesID, run.InitiatedBy)
	if err != nil {
		return fmt.Errorf("append run: %w", err)
	}
	return nil
}

// GetByID retrieves a single run
func (r *RunRepository) GetByID(ctx context.Context, db ports.DBTX, id uuid.UUID) (*models.ReconciliationRun, error) {
	row := executor(db, r.db).QueryRow(ctx,
		`SELECT `+runColumns+` FROM reconciliation_runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// GetByChecksum finds the newest run with an identical input checksum
func (r *RunRepository) GetByChecksum(ctx context.Context, db ports.DBTX, acquirerID string, stage models.Stage, checksum string) (*models.ReconciliationRun, error) {
	row := executor(db, r.db).QueryRow(ctx,
		`SELECT `+runColumns+` FROM reconciliation_runs
		WHERE acquirer_id = $1 AND stage = $2 AND input_checksum = $3
		ORDER BY created_at DESC LIMIT 1`,
		acquirerID, string(stage), checksum)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run by checksum: %w", err)
	}
	return run, nil
}

// LatestForScope returns the newest run for (stage, acquirer, date)
func (r *RunRepository) LatestForScope(ctx context.Context, db ports.DBTX, acquirerID string, stage models.Stage, date time.Time) (*models.ReconciliationRun, error) {
	row := executor(db, r.db).QueryRow(ctx,
		`SELECT `+runColumns+` FROM reconciliation_runs
		WHERE acquirer_id = $1 AND stage = $2 AND reference_date::date = $3::date
		ORDER BY version DESC, created_at DESC LIMIT 1`,
		acquirerID, string(stage), date)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest run: %w", err)
	}
	return run, nil
}

// List pages through runs for an acquirer, newest first
func (r *RunRepository) List(ctx context.Context, db ports.DBTX, acquirerID string, stage *models.Stage, limit, offset int32) ([]*models.ReconciliationRun, error) {
	query := `SELECT ` + runColumns + ` FROM reconciliation_runs WHERE acquirer_id = $1`
	args := []interface{}{acquirerID}
	if stage != nil {
		query += ` AND stage = $2`
		args = append(args, string(*stage))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := executor(db, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ReconciliationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// NextVersion returns the next monotonic version for the scope
func (r *RunRepository) NextVersion(ctx context.Context, db ports.DBTX, acquirerID string, stage models.Stage, date time.Time) (int32, error) {
	var version int32
	err := executor(db, r.db).QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM reconciliation_runs
		WHERE acquirer_id = $1 AND stage = $2 AND reference_date::date = $3::date`,
		acquirerID, string(stage), date).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("next version: %w", err)
	}
	return version, nil
}

func scanRun(row pgx.Row) (*models.ReconciliationRun, error) {
	var run models.ReconciliationRun
	err := row.Scan(&run.ID, &run.Stage, &run.AcquirerID, &run.ReferenceDate,
		&run.InputChecksum, &run.Verdict, &run.Divergences, &run.Summary,
		&run.Version, &run.SupersedesID, &run.InitiatedBy, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
