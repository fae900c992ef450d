package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
)

// SettlementRepository defines persistence for settlement results, the
// audit trail that makes Stage 3 idempotent
type SettlementRepository interface {
	// Create records a settlement. Fails on idempotency-key conflict.
	Create(ctx context.Context, tx DBTX, result *models.SettlementResult) error

	// Exists reports whether an installment was already settled for the
	// given acquirer+date scope
	Exists(ctx context.Context, db DBTX, installmentID uuid.UUID, acquirerID string, date time.Time) (bool, error)

	// ExistsForSale reports whether any installment of the sale was settled
	// for the scope. Used to tell already-processed receipts apart from
	// orphans when no open installment remains.
	ExistsForSale(ctx context.Context, db DBTX, saleID uuid.UUID, acquirerID string, date time.Time) (bool, error)

	// ListByRun lists the results recorded by one apply run
	ListByRun(ctx context.Context, db DBTX, runID uuid.UUID) ([]*models.SettlementResult, error)
}

// InstallmentRepository defines persistence for receivable installments
type InstallmentRepository interface {
	// FindOldestOpen returns the oldest unsettled installment of a sale,
	// or nil when every installment is settled
	FindOldestOpen(ctx context.Context, db DBTX, saleID uuid.UUID) (*models.ReceivableInstallment, error)

	// CountOpenBySale counts unsettled installments for preview
	CountOpenBySale(ctx context.Context, db DBTX, saleID uuid.UUID) (int32, error)

	// MarkSettled stamps the installment as paid
	MarkSettled(ctx context.Context, tx DBTX, id uuid.UUID, at time.Time) error
}

// ScopeLocker provides mutual exclusion per (acquirer, date) scope for
// settlement application
type ScopeLocker interface {
	// TryLockScope acquires an exclusive transaction-scoped lock for the
	// settlement scope. Returns false immediately when another apply holds
	// the lock.
	TryLockScope(ctx context.Context, tx DBTX, acquirerID string, date time.Time) (bool, error)
}
