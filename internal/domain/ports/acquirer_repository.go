package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
)

// AcquirerTransactionRepository defines persistence for imported acquirer
// settlement rows
type AcquirerTransactionRepository interface {
	// ReplaceImportBatch stores a freshly imported batch, superseding any
	// previous batch for the acquirer. NSU uniqueness within the batch is
	// enforced by the storage layer.
	ReplaceImportBatch(ctx context.Context, tx DBTX, acquirerID string, batchID uuid.UUID, txns []*models.AcquirerTransaction) error

	// ListLatestBatch lists the most recent import for an acquirer,
	// optionally filtered by due date
	ListLatestBatch(ctx context.Context, db DBTX, acquirerID string, date *time.Time) ([]*models.AcquirerTransaction, error)
}
