package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/ports"
)

// ReceiptRepository implements ports.ReceiptRepository
type ReceiptRepository struct {
	db ports.DBTX
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db ports.DBPort) *ReceiptRepository {
	return &ReceiptRepository{db: db.GetDB()}
}

// CreateDetails stores the detail rows of a cascade run
func (r *ReceiptRepository) CreateDetails(ctx context.Context, tx ports.DBTX, runID uuid.UUID, details []*models.ReceiptDetail) error {
	db := executor(tx, r.db)
	for _, d := range details {
		value, err := decimalToNumeric(d.Value)
		if err != nil {
			return err
		}
		id := d.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		_, err = db.Exec(ctx, `
			INSERT INTO receipt_details (id, run_id, acquirer_name, nsu, date, value)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, runID, d.AcquirerName, d.NSU, d.Date, value)
		if err != nil {
			return fmt.Errorf("insert receipt detail nsu %s: %w", d.NSU, err)
		}
	}
	return nil
}

// ListByRun lists the detail rows persisted for a cascade run
func (r *ReceiptRepository) ListByRun(ctx context.Context, db ports.DBTX, runID uuid.UUID) ([]*models.ReceiptDetail, error) {
	rows, err := executor(db, r.db).Query(ctx,
		`SELECT id, run_id, acquirer_name, nsu, date, value
		FROM receipt_details WHERE run_id = $1 ORDER BY nsu`, runID)
	if err != nil {
		return nil, fmt.Errorf("list receipt details: %w", err)
	}
	defer rows.Close()

	var details []*models.ReceiptDetail
	for rows.Next() {
		var (
			d     models.ReceiptDetail
			value pgtype.Numeric
		)
		if err := rows.Scan(&d.ID, &d.RunID, &d.AcquirerName, &d.NSU, &d.Date, &value); err != nil {
			return nil, err
		}
		if d.Value, err = pgNumericToDecimal(value); err != nil {
			return nil, fmt.Errorf("convert value: %w", err)
		}
		details = append(details, &d)
	}
	return details, rows.Err()
}
