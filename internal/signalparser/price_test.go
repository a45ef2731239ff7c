package signalparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPrices_EntryRangeRatioBound(t *testing.T) {
	// 1000 to 2500 has a ratio of 2.5, outside (0.5, 2.0), so no range should
	// be accepted and the fallback scan takes over instead.
	out := extractPrices("entry 1000 - 2500 sl 990")

	assert.Nil(t, out.entryRangeLow)
}

func TestExtractPrices_TakeProfitListDedup(t *testing.T) {
	out := extractPrices("buy gold entry 2015 sl 2005 tp (2025/2035/2025)")

	require.Len(t, out.takeProfits, 2)
	assert.True(t, out.takeProfits[0].Equal(mustDecimal(t, "2025")))
	assert.True(t, out.takeProfits[1].Equal(mustDecimal(t, "2035")))
}

func TestExtractPrices_FallbackScanFillsMissingFields(t *testing.T) {
	out := extractPrices("EURUSD buy 1.0850 1.0800 1.0950")

	require.NotNil(t, out.entry)
	assert.True(t, out.entry.Equal(mustDecimal(t, "1.0850")))
	require.NotNil(t, out.stopLoss)
	assert.True(t, out.stopLoss.Equal(mustDecimal(t, "1.0800")))
	require.Len(t, out.takeProfits, 1)
	assert.True(t, out.takeProfits[0].Equal(mustDecimal(t, "1.0950")))
}
