package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MatchStatus classifies the outcome of pairing a payment line with an
// acquirer transaction
type MatchStatus string

const (
	MatchOK                MatchStatus = "ok"
	MatchDivergent         MatchStatus = "divergent"
	MatchOrphanReceivable  MatchStatus = "orphan_receivable"
	MatchOrphanTransaction MatchStatus = "orphan_transaction"
	MatchMissingReference  MatchStatus = "missing_reference"
)

// statusRank orders statuses confidence-descending for preview output
var statusRank = map[MatchStatus]int{
	MatchOK:                0,
	MatchDivergent:         1,
	MatchOrphanReceivable:  2,
	MatchOrphanTransaction: 3,
	MatchMissingReference:  4,
}

// Match pairs one payment line with zero or one acquirer transaction.
// Confirmed matches are terminal: confirmation writes the NSU back onto the
// payment line and re-confirming is a no-op.
type Match struct {
	ID            uuid.UUID       `json:"id"`
	AcquirerID    string          `json:"acquirer_id"`
	PaymentLineID *uuid.UUID      `json:"payment_line_id"`
	SaleID        *uuid.UUID      `json:"sale_id"`
	TransactionID *uuid.UUID      `json:"transaction_id"`
	NSU           *string         `json:"nsu"`
	Value         decimal.Decimal `json:"value"`
	Status        MatchStatus     `json:"status"`
	Divergences   []Divergence    `json:"divergences"`
	Confirmed     bool            `json:"confirmed"`
	ConfirmedAt   *time.Time      `json:"confirmed_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Confirmable reports whether the match may be confirmed at all.
// Orphans and lines without an NSU require manual resolution first.
func (m *Match) Confirmable() bool {
	return m.Status == MatchOK || m.Status == MatchDivergent
}

// SortMatches orders a preview set ok → divergent → orphan_receivable →
// orphan_transaction → missing_reference, ties broken by value descending
// then NSU.
func SortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		ri, rj := statusRank[matches[i].Status], statusRank[matches[j].Status]
		if ri != rj {
			return ri < rj
		}
		if !matches[i].Value.Equal(matches[j].Value) {
			return matches[i].Value.GreaterThan(matches[j].Value)
		}
		return nsuOf(&matches[i]) < nsuOf(&matches[j])
	})
}

func nsuOf(m *Match) string {
	if m.NSU == nil {
		return ""
	}
	return *m.NSU
}
