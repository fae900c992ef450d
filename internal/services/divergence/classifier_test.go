package divergence

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/domain"
)

func TestCompareValues_ExactMatch(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	d := c.CompareValues(domain.DivergenceValue,
		decimal.NewFromFloat(150.00), decimal.NewFromFloat(150.00))

	assert.Nil(t, d)
}

func TestCompareValues_RoundingWithinEpsilon(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	d := c.CompareValues(domain.DivergenceBatchBank,
		decimal.NewFromFloat(1000.00), decimal.NewFromFloat(999.98))

	require.NotNil(t, d)
	assert.Equal(t, domain.SeverityRounding, d.Severity)
	assert.True(t, d.AbsDiff.Equal(decimal.NewFromFloat(0.02)))
}

func TestCompareValues_AttentionAboveThreshold(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	d := c.CompareValues(domain.DivergenceDetailBatch,
		decimal.NewFromFloat(1000.00), decimal.NewFromFloat(950.00))

	require.NotNil(t, d)
	assert.Equal(t, domain.SeverityAttention, d.Severity)
	assert.True(t, d.AbsDiff.Equal(decimal.NewFromFloat(50.00)))
	assert.True(t, d.PctDiff.Equal(decimal.NewFromFloat(5)))
}

func TestCompareValues_PercentThresholdKeepsLargeScaleRounding(t *testing.T) {
	// 0.08 on 100k is above the absolute epsilon but far below 0.1%
	c := NewClassifier(DefaultConfig())

	d := c.CompareValues(domain.DivergenceBatchBank,
		decimal.NewFromFloat(100000.00), decimal.NewFromFloat(99999.92))

	require.NotNil(t, d)
	assert.Equal(t, domain.SeverityRounding, d.Severity)
}

func TestCompareValues_Commutative(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	a := decimal.NewFromFloat(1000.00)
	b := decimal.NewFromFloat(950.00)

	d1 := c.CompareValues(domain.DivergenceDetailBatch, a, b)
	d2 := c.CompareValues(domain.DivergenceDetailBatch, b, a)

	require.NotNil(t, d1)
	require.NotNil(t, d2)
	assert.Equal(t, d1.Severity, d2.Severity)
	assert.True(t, d1.AbsDiff.Equal(d2.AbsDiff))
}

func TestCompareCounts(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	assert.Nil(t, c.CompareCounts(domain.DivergenceInstallments, 3, 3))

	d := c.CompareCounts(domain.DivergenceInstallments, 3, 4)
	require.NotNil(t, d)
	assert.Equal(t, domain.SeverityAttention, d.Severity)
}

func TestCompareText_NormalizesCase(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	assert.Nil(t, c.CompareText(domain.DivergenceBrand, "Visa", "VISA"))
	assert.Nil(t, c.CompareText(domain.DivergenceBrand, "Master Card", "mastercard"))

	d := c.CompareText(domain.DivergenceBrand, "visa", "elo")
	require.NotNil(t, d)
	assert.Equal(t, domain.SeverityAttention, d.Severity)
}

func TestValueWithinTolerance(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	assert.True(t, c.ValueWithinTolerance(
		decimal.NewFromFloat(100.00), decimal.NewFromFloat(100.03)))
	assert.False(t, c.ValueWithinTolerance(
		decimal.NewFromFloat(100.00), decimal.NewFromFloat(101.00)))
}
