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

// PaymentLineRepository implements ports.PaymentLineRepository
type PaymentLineRepository struct {
	db ports.DBTX
}

// NewPaymentLineRepository creates a new payment line repository
func NewPaymentLineRepository(db ports.DBPort) *PaymentLineRepository {
	return &PaymentLineRepository{db: db.GetDB()}
}

const paymentLineColumns = `id, sale_id, method, acquirer_id, brand, installments, value, nsu, sale_date, created_at, updated_at`

// ListCardLines lists card payment lines, optionally scoped to a sale date
func (r *PaymentLineRepository) ListCardLines(ctx context.Context, db ports.DBTX, date *time.Time) ([]*models.PaymentLine, error) {
	query := `SELECT ` + paymentLineColumns + `
		FROM payment_lines
		WHERE method = $1`
	args := []interface{}{string(models.PaymentMethodCard)}
	if date != nil {
		query += ` AND sale_date::date = $2::date`
		args = append(args, *date)
	}
	query += ` ORDER BY sale_date, created_at`

	rows, err := executor(db, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list card lines: %w", err)
	}
	defer rows.Close()

	var lines []*models.PaymentLine
	for rows.Next() {
		line, err := scanPaymentLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// GetByID retrieves a single payment line
func (r *PaymentLineRepository) GetByID(ctx context.Context, db ports.DBTX, id uuid.UUID) (*models.PaymentLine, error) {
	row := executor(db, r.db).QueryRow(ctx,
		`SELECT `+paymentLineColumns+` FROM payment_lines WHERE id = $1`, id)
	line, err := scanPaymentLine(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payment line: %w", err)
	}
	return line, nil
}

// AttachNSU back-fills the NSU and acquirer onto a payment line
func (r *PaymentLineRepository) AttachNSU(ctx context.Context, tx ports.DBTX, id uuid.UUID, nsu, acquirerID string) error {
	tag, err := executor(tx, r.db).Exec(ctx,
		`UPDATE payment_lines SET nsu = $2, acquirer_id = $3, updated_at = now() WHERE id = $1`,
		id, nsu, acquirerID)
	if err != nil {
		return fmt.Errorf("attach nsu: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("attach nsu: payment line %s not found", id)
	}
	return nil
}

func scanPaymentLine(row pgx.Row) (*models.PaymentLine, error) {
	var (
		line     models.PaymentLine
		acquirer pgtype.Text
		nsu      pgtype.Text
		value    pgtype.Numeric
	)
	err := row.Scan(&line.ID, &line.SaleID, &line.Method, &acquirer, &line.Brand,
		&line.Installments, &value, &nsu, &line.SaleDate, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return nil, err
	}
	line.AcquirerID = textPtr(acquirer)
	line.NSU = textPtr(nsu)
	line.Value, err = pgNumericToDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("convert value: %w", err)
	}
	return &line, nil
}
