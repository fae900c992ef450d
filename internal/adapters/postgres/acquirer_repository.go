package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/ports"
)

// AcquirerTransactionRepository implements ports.AcquirerTransactionRepository
type AcquirerTransactionRepository struct {
	db ports.DBTX
}

// NewAcquirerTransactionRepository creates a new acquirer transaction repository
func NewAcquirerTransactionRepository(db ports.DBPort) *AcquirerTransactionRepository {
	return &AcquirerTransactionRepository{db: db.GetDB()}
}

// ReplaceImportBatch deletes the previous batch for the acquirer and inserts
// the new one. Must run inside a caller-owned transaction so a failed import
// never leaves the acquirer without a batch.
func (r *AcquirerTransactionRepository) ReplaceImportBatch(ctx context.Context, tx ports.DBTX, acquirerID string, batchID uuid.UUID, txns []*models.AcquirerTransaction) error {
	db := executor(tx, r.db)

	if _, err := db.Exec(ctx,
		`DELETE FROM acquirer_transactions WHERE acquirer_id = $1`, acquirerID); err != nil {
		return fmt.Errorf("clear previous batch: %w", err)
	}

	for _, t := range txns {
		gross, err := decimalToNumeric(t.GrossValue)
		if err != nil {
			return err
		}
		net, err := decimalToNumeric(t.NetValue)
		if err != nil {
			return err
		}
		_, err = db.Exec(ctx, `
			INSERT INTO acquirer_transactions
				(id, acquirer_id, import_batch_id, nsu, brand, product,
				 installments, installment_number, gross_value, net_value,
				 status, due_date, status_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			t.ID, acquirerID, batchID, t.NSU, t.Brand, t.Product,
			t.Installments, t.InstallmentNumber, gross, net,
			string(t.Status), t.DueDate, t.StatusDate)
		if err != nil {
			return fmt.Errorf("insert transaction nsu %s: %w", t.NSU, err)
		}
	}
	return nil
}

// ListLatestBatch lists the most recent import for an acquirer
func (r *AcquirerTransactionRepository) ListLatestBatch(ctx context.Context, db ports.DBTX, acquirerID string, date *time.Time) ([]*models.AcquirerTransaction, error) {
	query := `SELECT id, acquirer_id, import_batch_id, nsu, brand, product,
			installments, installment_number, gross_value, net_value,
			status, due_date, status_date, created_at
		FROM acquirer_transactions
		WHERE acquirer_id = $1`
	args := []interface{}{acquirerID}
	if date != nil {
		query += ` AND due_date::date = $2::date`
		args = append(args, *date)
	}
	query += ` ORDER BY due_date, nsu`

	rows, err := executor(db, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batch: %w", err)
	}
	defer rows.Close()

	var txns []*models.AcquirerTransaction
	for rows.Next() {
		t, err := scanAcquirerTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func scanAcquirerTransaction(row pgx.Row) (*models.AcquirerTransaction, error) {
	var (
		t          models.AcquirerTransaction
		gross, net pgtype.Numeric
	)
	err := row.Scan(&t.ID, &t.AcquirerID, &t.ImportBatchID, &t.NSU, &t.Brand,
		&t.Product, &t.Installments, &t.InstallmentNumber, &gross, &net,
		&t.Status, &t.DueDate, &t.StatusDate, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if t.GrossValue, err = pgNumericToDecimal(gross); err != nil {
		return nil, fmt.Errorf("convert gross value: %w", err)
	}
	if t.NetValue, err = pgNumericToDecimal(net); err != nil {
		return nil, fmt.Errorf("convert net value: %w", err)
	}
	return &t, nil
}
