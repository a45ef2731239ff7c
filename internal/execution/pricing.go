package execution

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/signalbridge/platform/internal/broker"
	"github.com/signalbridge/platform/internal/domain"
)

// orderPlan is the concrete order the engine decides to place, resolved
// from the Execution's planned fields and a live quote.
type orderPlan struct {
	useMarket bool
	price     *decimal.Decimal // nil for market, set for limit
}

// quoteView is the subset of broker.Quote the pricing policy needs, plus
// the symbol's point/digits used for pip sizing.
type quoteView struct {
	bid    decimal.Decimal
	ask    decimal.Decimal
	point  decimal.Decimal
	digits int
}

// resolveEntryPricing implements §4.3's "Entry pricing policy" exactly.
func resolveEntryPricing(exec domain.Execution, extracted domain.ExtractedSignal, prefs domain.Preferences, q quoteView) orderPlan {
	if extracted.EntryRangeLow != nil && extracted.EntryRangeHigh != nil {
		low, high := *extracted.EntryRangeLow, *extracted.EntryRangeHigh
		switch exec.Side {
		case domain.SideBuy:
			if q.ask.LessThanOrEqual(high) {
				return orderPlan{useMarket: true}
			}
			return orderPlan{price: &high}
		case domain.SideSell:
			if q.bid.GreaterThanOrEqual(low) {
				return orderPlan{useMarket: true}
			}
			return orderPlan{price: &low}
		}
	}

	if prefs.UseLimitOrders && exec.PlannedEntry != nil {
		entry := *exec.PlannedEntry
		pip := pipSize(q)
		current := q.ask
		if exec.Side == domain.SideSell {
			current = q.bid
		}
		distance := current.Sub(entry).Abs()
		maxSlippage := prefs.MaxSlippagePips.Mul(pip)
		if distance.GreaterThan(maxSlippage) {
			return orderPlan{price: &entry}
		}
		return orderPlan{useMarket: true}
	}

	return orderPlan{useMarket: true}
}

// pipSize implements §4.3's `digits ∈ {3,5} ⇒ pip = 10·point, else pip = point`.
func pipSize(q quoteView) decimal.Decimal {
	if q.digits == 3 || q.digits == 5 {
		return q.point.Mul(decimal.NewFromInt(10))
	}
	return q.point
}

// fetchQuote pulls a quote from the adapter and narrows it to what the
// pricing policy needs.
func fetchQuote(ctx context.Context, adapter broker.Adapter, symbol string) (quoteView, error) {
	quote, err := adapter.Quote(ctx, symbol)
	if err != nil {
		return quoteView{}, err
	}
	// Point/digits are not part of broker.Quote's minimal shape; a
	// production bridge would extend the quote payload. Use a pip-neutral
	// default (point = smallest price increment implied by the quote's own
	// decimal scale) so the policy still behaves sanely against a bridge
	// that only returns bid/ask.
	exponent := quote.Ask.Exponent()
	digits := int(-exponent)
	if digits < 0 {
		digits = 0
	}
	point := decimal.New(1, exponent)
	return quoteView{bid: quote.Bid, ask: quote.Ask, point: point, digits: digits}, nil
}
