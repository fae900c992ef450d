package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain"
)

// MatchRepository defines persistence for Stage-1 match sets
type MatchRepository interface {
	// ReplaceUnconfirmed stores a fresh preview set for the scope,
	// discarding any previous unconfirmed matches. Confirmed matches are
	// never touched.
	ReplaceUnconfirmed(ctx context.Context, tx DBTX, acquirerID string, date *time.Time, matches []domain.Match) error

	// GetByIDs loads matches for a confirmation batch
	GetByIDs(ctx context.Context, db DBTX, ids []uuid.UUID) ([]*domain.Match, error)

	// ListConfirmed lists the confirmed matches for an acquirer. Preview
	// uses it to keep settled pairs out of the next unconfirmed set.
	ListConfirmed(ctx context.Context, db DBTX, acquirerID string) ([]*domain.Match, error)

	// MarkConfirmed flips a match to confirmed. Idempotent in the service
	// layer: already-confirmed matches are skipped before this is called.
	MarkConfirmed(ctx context.Context, tx DBTX, id uuid.UUID, at time.Time) error

	// GetConfirmedByNSU finds the confirmed match for an acquirer reference,
	// used by Stage 3 to resolve receipts back to sales
	GetConfirmedByNSU(ctx context.Context, db DBTX, acquirerID, nsu string) (*domain.Match, error)
}
