package execution

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/signalbridge/platform/internal/domain"
)

func TestResolveEntryPricing_BuyRangeUsesMarketWhenAskWithinRange(t *testing.T) {
	low := decimal.NewFromFloat(1.0990)
	high := decimal.NewFromFloat(1.1010)
	extracted := domain.ExtractedSignal{EntryRangeLow: &low, EntryRangeHigh: &high}
	exec := domain.Execution{Side: domain.SideBuy}
	q := quoteView{bid: decimal.NewFromFloat(1.0999), ask: decimal.NewFromFloat(1.1000)}

	plan := resolveEntryPricing(exec, extracted, domain.Preferences{}, q)

	assert.True(t, plan.useMarket)
}

func TestResolveEntryPricing_BuyRangeFallsBackToLimitWhenAskAboveHigh(t *testing.T) {
	low := decimal.NewFromFloat(1.0990)
	high := decimal.NewFromFloat(1.1010)
	extracted := domain.ExtractedSignal{EntryRangeLow: &low, EntryRangeHigh: &high}
	exec := domain.Execution{Side: domain.SideBuy}
	q := quoteView{bid: decimal.NewFromFloat(1.1019), ask: decimal.NewFromFloat(1.1020)}

	plan := resolveEntryPricing(exec, extracted, domain.Preferences{}, q)

	assert.False(t, plan.useMarket)
	assert.True(t, plan.price.Equal(high))
}

func TestResolveEntryPricing_SellRangeUsesMarketWhenBidWithinRange(t *testing.T) {
	low := decimal.NewFromFloat(1.0990)
	high := decimal.NewFromFloat(1.1010)
	extracted := domain.ExtractedSignal{EntryRangeLow: &low, EntryRangeHigh: &high}
	exec := domain.Execution{Side: domain.SideSell}
	q := quoteView{bid: decimal.NewFromFloat(1.1000), ask: decimal.NewFromFloat(1.1001)}

	plan := resolveEntryPricing(exec, extracted, domain.Preferences{}, q)

	assert.True(t, plan.useMarket)
}

func TestResolveEntryPricing_NoRangeDefaultsToMarket(t *testing.T) {
	entry := decimal.NewFromFloat(1.1000)
	extracted := domain.ExtractedSignal{Entry: &entry}
	exec := domain.Execution{Side: domain.SideBuy, PlannedEntry: &entry}
	q := quoteView{bid: decimal.NewFromFloat(1.0999), ask: decimal.NewFromFloat(1.1000)}

	plan := resolveEntryPricing(exec, extracted, domain.Preferences{UseLimitOrders: false}, q)

	assert.True(t, plan.useMarket)
}
