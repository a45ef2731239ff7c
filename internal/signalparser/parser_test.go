package signalparser

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalbridge/platform/internal/domain"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestParse_ActionableMultiTP(t *testing.T) {
	text := "GOLD BUY @ 2015 - 2017\nSL 2005\nTP1 2025\nTP2 2035\nTP3 2045"

	result := Parse(text)

	require.Equal(t, domain.CategoryActionableSignal, result.Category)
	require.NotNil(t, result.Symbol)
	assert.Equal(t, "XAUUSD", *result.Symbol)
	require.NotNil(t, result.Side)
	assert.Equal(t, domain.SideBuy, *result.Side)
	require.NotNil(t, result.EntryRangeLow)
	require.NotNil(t, result.EntryRangeHigh)
	assert.True(t, result.EntryRangeLow.Equal(mustDecimal(t, "2015")))
	assert.True(t, result.EntryRangeHigh.Equal(mustDecimal(t, "2017")))
	require.NotNil(t, result.StopLoss)
	assert.True(t, result.StopLoss.Equal(mustDecimal(t, "2005")))
	require.Len(t, result.TakeProfits, 3)
	assert.True(t, result.Actionable())
	assert.Greater(t, result.Confidence, 0.5)
}

func TestParse_CommentaryNotActionable(t *testing.T) {
	cases := []string{
		"TP1 hit ✅ nice one guys",
		"NFP coming up in 30 minutes, stay cautious",
		"I think EURUSD could go higher this week",
		"Disclaimer: not financial advice, trade at your own risk",
	}

	for _, text := range cases {
		result := Parse(text)
		assert.Equal(t, domain.CategoryCommentary, result.Category, "text=%q", text)
		assert.False(t, result.Actionable())
	}
}

func TestParse_BreakevenModification(t *testing.T) {
	text := "Move SL to breakeven on EURUSD now"

	result := Parse(text)

	require.Equal(t, domain.CategoryModification, result.Category)
	require.NotNil(t, result.ModificationType)
	assert.Equal(t, domain.ModificationBreakevenMove, *result.ModificationType)
	assert.False(t, result.Actionable())
}

func TestParse_MissingSideAppliesConfidencePenalty(t *testing.T) {
	text := "EURUSD at 1.2050, SL 1.2000, TP 1.2150"

	result := Parse(text)

	require.NotNil(t, result.Symbol)
	assert.Nil(t, result.Side)
	require.Equal(t, domain.CategoryActionableSignal, result.Category)
	assert.InDelta(t, 0.77, result.Confidence, 0.01)
}

func TestParse_NoSymbolFallsBackToCommentary(t *testing.T) {
	text := "buy 1.2050, SL 1.2000, TP 1.2150"

	result := Parse(text)

	assert.Nil(t, result.Symbol)
	assert.Equal(t, domain.CategoryCommentary, result.Category)
	assert.False(t, result.Actionable())
}
