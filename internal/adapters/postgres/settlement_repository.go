package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/ports"
)

// SettlementRepository implements ports.SettlementRepository. The unique
// index on (installment_id, acquirer_id, settlement_date) is the storage
// half of the idempotency guarantee.
type SettlementRepository struct {
	db ports.DBTX
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db ports.DBPort) *SettlementRepository {
	return &SettlementRepository{db: db.GetDB()}
}

// Create records a settlement. Fails on idempotency-key conflict.
func (r *SettlementRepository) Create(ctx context.Context, tx ports.DBTX, result *models.SettlementResult) error {
	value, err := decimalToNumeric(result.Value)
	if err != nil {
		return err
	}
	_, err = executor(tx, r.db).Exec(ctx, `
		INSERT INTO settlement_results
			(id, run_id, installment_id, acquirer_id, settlement_date, value, nsu)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		result.ID, result.RunID, result.InstallmentID, result.AcquirerID,
		result.SettlementDate, value, result.NSU)
	if err != nil {
		return fmt.Errorf("create settlement %s: %w", result.IdempotencyKey(), err)
	}
	return nil
}

// Exists reports whether an installment was already settled for the scope
func (r *SettlementRepository) Exists(ctx context.Context, db ports.DBTX, installmentID uuid.UUID, acquirerID string, date time.Time) (bool, error) {
	var exists bool
	err := executor(db, r.db).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM settlement_results
			WHERE installment_id = $1 AND acquirer_id = $2
			  AND settlement_date::date = $3::date)`,
		installmentID, acquirerID, date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check settlement: %w", err)
	}
	return exists, nil
}

// ExistsForSale reports whether any installment of the sale was settled for
// the scope
func (r *SettlementRepository) ExistsForSale(ctx context.Context, db ports.DBTX, saleID uuid.UUID, acquirerID string, date time.Time) (bool, error) {
	var exists bool
	err := executor(db, r.db).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM settlement_results s
			JOIN receivable_installments i ON i.id = s.installment_id
			WHERE i.sale_id = $1 AND s.acquirer_id = $2
			  AND s.settlement_date::date = $3::date)`,
		saleID, acquirerID, date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check sale settlement: %w", err)
	}
	return exists, nil
}

// ListByRun lists the results recorded by one apply run
func (r *SettlementRepository) ListByRun(ctx context.Context, db ports.DBTX, runID uuid.UUID) ([]*models.SettlementResult, error) {
	rows, err := executor(db, r.db).Query(ctx, `
		SELECT id, run_id, installment_id, acquirer_id, settlement_date, value, nsu, created_at
		FROM settlement_results WHERE run_id = $1 ORDER BY created_at`, runID)
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	defer rows.Close()

	var results []*models.SettlementResult
	for rows.Next() {
		var (
			s     models.SettlementResult
			value pgtype.Numeric
		)
		if err := rows.Scan(&s.ID, &s.RunID, &s.InstallmentID, &s.AcquirerID,
			&s.SettlementDate, &value, &s.NSU, &s.CreatedAt); err != nil {
			return nil, err
		}
		if s.Value, err = pgNumericToDecimal(value); err != nil {
			return nil, fmt.Errorf("convert value: %w", err)
		}
		results = append(results, &s)
	}
	return results, rows.Err()
}

// InstallmentRepository implements ports.InstallmentRepository
type InstallmentRepository struct {
	db ports.DBTX
}

// NewInstallmentRepository creates a new installment repository
func NewInstallmentRepository(db ports.DBPort) *InstallmentRepository {
	return &InstallmentRepository{db: db.GetDB()}
}

// FindOldestOpen returns the oldest unsettled installment of a sale
func (r *InstallmentRepository) FindOldestOpen(ctx context.Context, db ports.DBTX, saleID uuid.UUID) (*models.ReceivableInstallment, error) {
	row := executor(db, r.db).QueryRow(ctx, `
		SELECT id, sale_id, number, value, due_date, settled_at, created_at
		FROM receivable_installments
		WHERE sale_id = $1 AND settled_at IS NULL
		ORDER BY due_date, number LIMIT 1`, saleID)
	inst, err := scanInstallment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open installment: %w", err)
	}
	return inst, nil
}

// CountOpenBySale counts unsettled installments
func (r *InstallmentRepository) CountOpenBySale(ctx context.Context, db ports.DBTX, saleID uuid.UUID) (int32, error) {
	var count int32
	err := executor(db, r.db).QueryRow(ctx, `
		SELECT COUNT(*) FROM receivable_installments
		WHERE sale_id = $1 AND settled_at IS NULL`, saleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count open installments: %w", err)
	}
	return count, nil
}

// MarkSettled stamps the installment as paid. Refuses to double-settle.
func (r *InstallmentRepository) MarkSettled(ctx context.Context, tx ports.DBTX, id uuid.UUID, at time.Time) error {
	tag, err := executor(tx, r.db).Exec(ctx, `
		UPDATE receivable_installments SET settled_at = $2
		WHERE id = $1 AND settled_at IS NULL`, id, at)
	if err != nil {
		return fmt.Errorf("mark settled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark settled: installment %s not open", id)
	}
	return nil
}

func scanInstallment(row pgx.Row) (*models.ReceivableInstallment, error) {
	var (
		inst      models.ReceivableInstallment
		value     pgtype.Numeric
		settledAt pgtype.Timestamptz
	)
	err := row.Scan(&inst.ID, &inst.SaleID, &inst.Number, &value,
		&inst.DueDate, &settledAt, &inst.CreatedAt)
	if err != nil {
		return nil, err
	}
	inst.SettledAt = timestampPtr(settledAt)
	if inst.Value, err = pgNumericToDecimal(value); err != nil {
		return nil, fmt.Errorf("convert value: %w", err)
	}
	return &inst, nil
}
