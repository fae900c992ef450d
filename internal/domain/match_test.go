package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSortMatches_StatusOrder(t *testing.T) {
	matches := []Match{
		{Status: MatchMissingReference, Value: decimal.NewFromInt(10)},
		{Status: MatchOK, Value: decimal.NewFromInt(10)},
		{Status: MatchOrphanTransaction, Value: decimal.NewFromInt(10)},
		{Status: MatchDivergent, Value: decimal.NewFromInt(10)},
		{Status: MatchOrphanReceivable, Value: decimal.NewFromInt(10)},
	}

	SortMatches(matches)

	got := make([]MatchStatus, len(matches))
	for i, m := range matches {
		got[i] = m.Status
	}
	assert.Equal(t, []MatchStatus{
		MatchOK, MatchDivergent, MatchOrphanReceivable, MatchOrphanTransaction, MatchMissingReference,
	}, got)
}

func TestSortMatches_TiesByValueDescendingThenNSU(t *testing.T) {
	nsuA, nsuB := "300001", "300002"
	matches := []Match{
		{Status: MatchOK, Value: decimal.NewFromInt(50), NSU: &nsuB},
		{Status: MatchOK, Value: decimal.NewFromInt(50), NSU: &nsuA},
		{Status: MatchOK, Value: decimal.NewFromInt(200), NSU: &nsuB},
	}

	SortMatches(matches)

	assert.True(t, matches[0].Value.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, nsuA, *matches[1].NSU)
	assert.Equal(t, nsuB, *matches[2].NSU)
}

func TestMatch_Confirmable(t *testing.T) {
	assert.True(t, (&Match{Status: MatchOK}).Confirmable())
	assert.True(t, (&Match{Status: MatchDivergent}).Confirmable())
	assert.False(t, (&Match{Status: MatchOrphanReceivable}).Confirmable())
	assert.False(t, (&Match{Status: MatchOrphanTransaction}).Confirmable())
	assert.False(t, (&Match{Status: MatchMissingReference}).Confirmable())
}
