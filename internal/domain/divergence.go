package domain

import (
	"github.com/shopspring/decimal"
)

// DivergenceType identifies which compared field disagreed
type DivergenceType string

const (
	DivergenceBrand        DivergenceType = "brand"
	DivergenceInstallments DivergenceType = "installments"
	DivergenceValue        DivergenceType = "value"
	DivergenceDetailBatch  DivergenceType = "sum_detail_vs_batch"
	DivergenceBatchBank    DivergenceType = "sum_batch_vs_bank"
)

// Severity classifies how serious a divergence is. Rounding-level
// divergences are recorded but never block advancement.
type Severity string

const (
	SeverityRounding  Severity = "rounding"
	SeverityAttention Severity = "attention"
)

// Divergence is a field-level disagreement attached to a match or to a
// cascade comparison.
type Divergence struct {
	Type     DivergenceType  `json:"type"`
	Expected string          `json:"expected"`
	Actual   string          `json:"actual"`
	AbsDiff  decimal.Decimal `json:"abs_diff"`
	PctDiff  decimal.Decimal `json:"pct_diff"`
	Severity Severity        `json:"severity"`
}

// HasAttention reports whether any divergence in the list is above
// rounding level
func HasAttention(divs []Divergence) bool {
	for _, d := range divs {
		if d.Severity == SeverityAttention {
			return true
		}
	}
	return false
}
