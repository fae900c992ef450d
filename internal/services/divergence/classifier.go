// Package divergence compares paired reconciliation fields within
// configurable tolerance and assigns a severity to each disagreement.
package divergence

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain"
)

// Config holds the tolerance thresholds. Defaults follow the business
// rules for cent-level truncation across acquirer files.
type Config struct {
	// RoundingEpsilon is the absolute difference still considered
	// per-line truncation noise (e.g. 0.05)
	RoundingEpsilon decimal.Decimal

	// PercentThreshold is the relative difference (in percent) below
	// which a divergence is still classified as rounding (e.g. 0.1)
	PercentThreshold decimal.Decimal
}

// DefaultConfig returns the product-chosen default tolerances
func DefaultConfig() Config {
	return Config{
		RoundingEpsilon:  decimal.NewFromFloat(0.05),
		PercentThreshold: decimal.NewFromFloat(0.1),
	}
}

// Classifier compares values and classifies differences by severity
type Classifier struct {
	cfg Config
}

// NewClassifier creates a classifier with the given tolerances
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// CompareValues compares two monetary values. Returns nil when they agree
// exactly; otherwise one Divergence whose severity depends only on the
// magnitude of the difference, so comparison order never changes the
// verdict.
func (c *Classifier) CompareValues(divType domain.DivergenceType, expected, actual decimal.Decimal) *domain.Divergence {
	diff := actual.Sub(expected).Abs()
	if diff.IsZero() {
		return nil
	}

	pct := decimal.Zero
	if !expected.IsZero() {
		pct = diff.Div(expected.Abs()).Mul(decimal.NewFromInt(100))
	}

	return &domain.Divergence{
		Type:     divType,
		Expected: expected.StringFixed(2),
		Actual:   actual.StringFixed(2),
		AbsDiff:  diff,
		PctDiff:  pct.Round(4),
		Severity: c.severity(diff, pct),
	}
}

// CompareCounts compares integer fields such as installment counts.
// Count disagreements are never rounding noise.
func (c *Classifier) CompareCounts(divType domain.DivergenceType, expected, actual int32) *domain.Divergence {
	if expected == actual {
		return nil
	}
	diff := expected - actual
	if diff < 0 {
		diff = -diff
	}
	return &domain.Divergence{
		Type:     divType,
		Expected: fmt.Sprintf("%d", expected),
		Actual:   fmt.Sprintf("%d", actual),
		AbsDiff:  decimal.NewFromInt32(diff),
		PctDiff:  decimal.Zero,
		Severity: domain.SeverityAttention,
	}
}

// CompareText compares normalized textual fields such as card brands.
// Any disagreement requires attention.
func (c *Classifier) CompareText(divType domain.DivergenceType, expected, actual string) *domain.Divergence {
	if normalizeText(expected) == normalizeText(actual) {
		return nil
	}
	return &domain.Divergence{
		Type:     divType,
		Expected: expected,
		Actual:   actual,
		AbsDiff:  decimal.Zero,
		PctDiff:  decimal.Zero,
		Severity: domain.SeverityAttention,
	}
}

// ValueWithinTolerance reports whether two monetary values agree within
// the rounding epsilon. Stage 1 uses this to decide ok vs divergent.
func (c *Classifier) ValueWithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(c.cfg.RoundingEpsilon)
}

func (c *Classifier) severity(absDiff, pctDiff decimal.Decimal) domain.Severity {
	if absDiff.LessThanOrEqual(c.cfg.RoundingEpsilon) {
		return domain.SeverityRounding
	}
	if !pctDiff.IsZero() && pctDiff.LessThanOrEqual(c.cfg.PercentThreshold) {
		return domain.SeverityRounding
	}
	return domain.SeverityAttention
}

func normalizeText(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r >= '0' && r <= '9':
			out = append(out, r)
		}
	}
	return string(out)
}
