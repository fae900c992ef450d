package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AcquirerTransactionStatus is the settlement status reported by the acquirer
type AcquirerTransactionStatus string

const (
	AcquirerTxnPending   AcquirerTransactionStatus = "pending"
	AcquirerTxnSettled   AcquirerTransactionStatus = "settled"
	AcquirerTxnCancelled AcquirerTransactionStatus = "cancelled"
	AcquirerTxnChargedBack AcquirerTransactionStatus = "charged_back"
)

// AcquirerTransaction is one row of an imported acquirer settlement file.
// Rows are immutable once imported; a new import for the same acquirer
// supersedes the previous batch. NSU is unique per (acquirer, import batch).
type AcquirerTransaction struct {
	ID                uuid.UUID                 `json:"id"`
	AcquirerID        string                    `json:"acquirer_id"`
	ImportBatchID     uuid.UUID                 `json:"import_batch_id"`
	NSU               string                    `json:"nsu"`
	Brand             string                    `json:"brand"`
	Product           string                    `json:"product"`
	Installments      int32                     `json:"installments"`
	InstallmentNumber int32                     `json:"installment_number"`
	GrossValue        decimal.Decimal           `json:"gross_value"`
	NetValue          decimal.Decimal           `json:"net_value"`
	Status            AcquirerTransactionStatus `json:"status"`
	DueDate           time.Time                 `json:"due_date"`
	StatusDate        time.Time                 `json:"status_date"`
	CreatedAt         time.Time                 `json:"created_at"`
}
