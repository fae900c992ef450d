package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how a sale line was paid
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodPix    PaymentMethod = "pix"
	PaymentMethodCredit PaymentMethod = "store_credit"
)

// SaleRecord represents a PDV sale. It is created by the sales module and is
// immutable during reconciliation except for the NSU/acquirer fields on its
// payment lines.
type SaleRecord struct {
	ID           uuid.UUID       `json:"id"`
	Date         time.Time       `json:"date"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaymentLines []PaymentLine   `json:"payment_lines"`
	CreatedAt    time.Time       `json:"created_at"`
}

// PaymentLine is one payment component of a sale. NSU and AcquirerID start
// empty and are back-filled either manually or by match confirmation.
type PaymentLine struct {
	ID           uuid.UUID       `json:"id"`
	SaleID       uuid.UUID       `json:"sale_id"`
	Method       PaymentMethod   `json:"method"`
	AcquirerID   *string         `json:"acquirer_id"`
	Brand        string          `json:"brand"`
	Installments int32           `json:"installments"`
	Value        decimal.Decimal `json:"value"`
	NSU          *string         `json:"nsu"`
	SaleDate     time.Time       `json:"sale_date"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// HasNSU reports whether the line already carries an acquirer reference
func (p *PaymentLine) HasNSU() bool {
	return p.NSU != nil && *p.NSU != ""
}

// ReceivableInstallment is one outstanding installment of a card sale.
// Settlement (Stage 3) marks installments settled exactly once per
// (installment, acquirer, date) scope.
type ReceivableInstallment struct {
	ID        uuid.UUID       `json:"id"`
	SaleID    uuid.UUID       `json:"sale_id"`
	Number    int32           `json:"number"`
	Value     decimal.Decimal `json:"value"`
	DueDate   time.Time       `json:"due_date"`
	SettledAt *time.Time      `json:"settled_at"`
	CreatedAt time.Time       `json:"created_at"`
}

// IsSettled reports whether the installment has already been paid off
func (r *ReceivableInstallment) IsSettled() bool {
	return r.SettledAt != nil
}
