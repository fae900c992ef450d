package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/ports"
)

// ScopeLocker implements ports.ScopeLocker with transaction-scoped advisory
// locks, so the lock is released automatically on commit or rollback.
type ScopeLocker struct{}

// NewScopeLocker creates a new scope locker
func NewScopeLocker() *ScopeLocker {
	return &ScopeLocker{}
}

// TryLockScope acquires an exclusive advisory lock for the settlement scope.
// Returns false immediately when another apply holds it. Must be called
// inside the transaction that performs the apply.
func (l *ScopeLocker) TryLockScope(ctx context.Context, tx ports.DBTX, acquirerID string, date time.Time) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("scope lock requires a transaction")
	}
	key := fmt.Sprintf("settlement:%s:%s", acquirerID, date.Format("2006-01-02"))
	var locked bool
	err := tx.QueryRow(ctx,
		`SELECT pg_try_advisory_xact_lock(hashtext($1))`, key).Scan(&locked)
	if err != nil {
		return false, fmt.Errorf("advisory lock: %w", err)
	}
	return locked, nil
}
