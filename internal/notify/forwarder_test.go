package notify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/signalbridge/platform/internal/domain"
)

func TestFormatSignal_EntryRangeAndMultipleTPs(t *testing.T) {
	low := decimal.NewFromFloat(4601.5)
	high := decimal.NewFromFloat(4605.5)
	sl := decimal.NewFromFloat(4609.5)
	side := domain.SideSell

	extracted := domain.ExtractedSignal{
		Side:           &side,
		EntryRangeLow:  &low,
		EntryRangeHigh: &high,
		StopLoss:       &sl,
		TakeProfits: []decimal.Decimal{
			decimal.NewFromInt(4600),
			decimal.NewFromInt(4598),
		},
	}

	text := FormatSignal("XAUUSD", extracted)

	assert.Contains(t, text, "SELL: XAUUSD")
	assert.Contains(t, text, "Entry:** 4601.5 - 4605.5")
	assert.Contains(t, text, "SL:** 4609.5")
	assert.Contains(t, text, "TP1:** 4600")
	assert.Contains(t, text, "TP2:** 4598")
}

type fakeSender struct {
	sent []string
}

func (f *fakeSender) SendMessage(address, text string) error {
	f.sent = append(f.sent, address)
	return nil
}

func TestForwardToSubscribers_SkipsInactive(t *testing.T) {
	sender := &fakeSender{}
	subs := []domain.Subscriber{
		{ExternalAddress: "123", Active: true},
		{ExternalAddress: "456", Active: false},
	}

	errs := ForwardToSubscribers(sender, subs, "hello")

	assert.Empty(t, errs)
	assert.Equal(t, []string{"123"}, sender.sent)
}
