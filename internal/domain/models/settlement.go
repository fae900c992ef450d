package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementResult records a single installment marked paid by Stage 3.
// The (installment, acquirer, settlement date) triple is unique in storage,
// which is what makes settlement application idempotent.
type SettlementResult struct {
	ID             uuid.UUID       `json:"id"`
	RunID          uuid.UUID       `json:"run_id"`
	InstallmentID  uuid.UUID       `json:"installment_id"`
	AcquirerID     string          `json:"acquirer_id"`
	SettlementDate time.Time       `json:"settlement_date"`
	Value          decimal.Decimal `json:"value"`
	NSU            string          `json:"nsu"`
	CreatedAt      time.Time       `json:"created_at"`
}

// IdempotencyKey returns the key that guards against double settlement
func (s *SettlementResult) IdempotencyKey() string {
	return SettlementIdempotencyKey(s.InstallmentID, s.AcquirerID, s.SettlementDate)
}

// SettlementIdempotencyKey builds the double-settlement guard key
func SettlementIdempotencyKey(installmentID uuid.UUID, acquirerID string, date time.Time) string {
	return fmt.Sprintf("%s:%s:%s", installmentID, acquirerID, date.Format("2006-01-02"))
}
