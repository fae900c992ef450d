package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain/models"
)

// PaymentLineRepository defines persistence for PDV sale payment lines
type PaymentLineRepository interface {
	// ListCardLines lists card payment lines not yet linked to an acquirer
	// transaction, optionally scoped to a sale date
	ListCardLines(ctx context.Context, db DBTX, date *time.Time) ([]*models.PaymentLine, error)

	// GetByID retrieves a single payment line
	GetByID(ctx context.Context, db DBTX, id uuid.UUID) (*models.PaymentLine, error)

	// AttachNSU back-fills the NSU and acquirer onto a payment line.
	// Used both by match confirmation and by manual NSU entry.
	AttachNSU(ctx context.Context, tx DBTX, id uuid.UUID, nsu, acquirerID string) error
}
