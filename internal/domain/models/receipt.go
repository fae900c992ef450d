package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptDetail is a normalized row from the acquirer's detailed receipt
// file. It carries the NSU that links it back to a Stage-1 match.
type ReceiptDetail struct {
	ID           uuid.UUID       `json:"id"`
	RunID        uuid.UUID       `json:"run_id"`
	AcquirerName string          `json:"acquirer_name"`
	NSU          string          `json:"nsu"`
	Date         time.Time       `json:"date"`
	Value        decimal.Decimal `json:"value"`
}

// BatchReceipt is a normalized row from the acquirer's batch-payment file.
// Only a subset of the 19 source columns is consumed.
type BatchReceipt struct {
	PaymentID string          `json:"payment_id"`
	Brand     string          `json:"brand"`
	Modality  string          `json:"modality"`
	Status    string          `json:"status"`
	Value     decimal.Decimal `json:"value"`
}

// BankCredit is a credit-type transaction taken from an OFX bank statement.
// Debits are filtered out at import time.
type BankCredit struct {
	FITID    string          `json:"fitid"`
	Type     string          `json:"type"`
	PostedAt time.Time       `json:"posted_at"`
	Amount   decimal.Decimal `json:"amount"`
	Memo     string          `json:"memo"`
}
