package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/ports"
)

// MatchRepository implements ports.MatchRepository
type MatchRepository struct {
	db ports.DBTX
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db ports.DBPort) *MatchRepository {
	return &MatchRepository{db: db.GetDB()}
}

const matchColumns = `id, acquirer_id, payment_line_id, sale_id, transaction_id,
	nsu, value, status, divergences, confirmed, confirmed_at, created_at`

// ReplaceUnconfirmed stores a fresh preview set for the scope. Confirmed
// matches are never touched.
func (r *MatchRepository) ReplaceUnconfirmed(ctx context.Context, tx ports.DBTX, acquirerID string, date *time.Time, matches []domain.Match) error {
	db := executor(tx, r.db)

	query := `DELETE FROM matches WHERE acquirer_id = $1 AND NOT confirmed`
	args := []interface{}{acquirerID}
	if date != nil {
		query += ` AND created_at::date = $2::date`
		args = append(args, *date)
	}
	if _, err := db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("clear unconfirmed matches: %w", err)
	}

	for i := range matches {
		m := &matches[i]
		divs, err := json.Marshal(m.Divergences)
		if err != nil {
			return fmt.Errorf("encode divergences: %w", err)
		}
		value, err := decimalToNumeric(m.Value)
		if err != nil {
			return err
		}
		_, err = db.Exec(ctx, `
			INSERT INTO matches
				(id, acquirer_id, payment_line_id, sale_id, transaction_id,
				 nsu, value, status, divergences, confirmed)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false)`,
			m.ID, acquirerID, m.PaymentLineID, m.SaleID, m.TransactionID,
			nullTextPtr(m.NSU), value, string(m.Status), divs)
		if err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
	}
	return nil
}

// GetByIDs loads matches for a confirmation batch
func (r *MatchRepository) GetByIDs(ctx context.Context, db ports.DBTX, ids []uuid.UUID) ([]*domain.Match, error) {
	rows, err := executor(db, r.db).Query(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get matches: %w", err)
	}
	defer rows.Close()

	var matches []*domain.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ListConfirmed lists the confirmed matches for an acquirer
func (r *MatchRepository) ListConfirmed(ctx context.Context, db ports.DBTX, acquirerID string) ([]*domain.Match, error) {
	rows, err := executor(db, r.db).Query(ctx,
		`SELECT `+matchColumns+` FROM matches
		WHERE acquirer_id = $1 AND confirmed`, acquirerID)
	if err != nil {
		return nil, fmt.Errorf("list confirmed matches: %w", err)
	}
	defer rows.Close()

	var matches []*domain.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// MarkConfirmed flips a match to confirmed
func (r *MatchRepository) MarkConfirmed(ctx context.Context, tx ports.DBTX, id uuid.UUID, at time.Time) error {
	tag, err := executor(tx, r.db).Exec(ctx,
		`UPDATE matches SET confirmed = true, confirmed_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark confirmed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark confirmed: match %s not found", id)
	}
	return nil
}

// GetConfirmedByNSU finds the confirmed match for an acquirer reference
func (r *MatchRepository) GetConfirmedByNSU(ctx context.Context, db ports.DBTX, acquirerID, nsu string) (*domain.Match, error) {
	row := executor(db, r.db).QueryRow(ctx,
		`SELECT `+matchColumns+` FROM matches
		WHERE acquirer_id = $1 AND nsu = $2 AND confirmed
		ORDER BY confirmed_at DESC LIMIT 1`, acquirerID, nsu)
	m, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get confirmed match: %w", err)
	}
	return m, nil
}

func scanMatch(row pgx.Row) (*domain.Match, error) {
	var (
		m           domain.Match
		nsu         pgtype.Text
		value       pgtype.Numeric
		divs        []byte
		confirmedAt pgtype.Timestamptz
	)
	err := row.Scan(&m.ID, &m.AcquirerID, &m.PaymentLineID, &m.SaleID,
		&m.TransactionID, &nsu, &value, &m.Status, &divs, &m.Confirmed,
		&confirmedAt, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.NSU = textPtr(nsu)
	m.ConfirmedAt = timestampPtr(confirmedAt)
	if m.Value, err = pgNumericToDecimal(value); err != nil {
		return nil, fmt.Errorf("convert value: %w", err)
	}
	if len(divs) > 0 {
		if err := json.Unmarshal(divs, &m.Divergences); err != nil {
			return nil, fmt.Errorf("decode divergences: %w", err)
		}
	}
	return &m, nil
}
