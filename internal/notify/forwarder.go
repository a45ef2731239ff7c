package notify

import (
	"fmt"
	"strings"

	"github.com/signalbridge/platform/internal/domain"
)

// MessageSender is the subset of the Message Source capable of delivering a
// human-readable forward to one Subscriber's external address.
type MessageSender interface {
	SendMessage(address, text string) error
}

// FormatSignal renders one actionable ExtractedSignal into the emoji-tagged
// Markdown block forwarded to every active Subscriber — the Go rendition of
// the original service's handle_signal_message forward_text template.
func FormatSignal(symbol string, extracted domain.ExtractedSignal) string {
	side := "SIGNAL"
	if extracted.Side != nil {
		side = strings.ToUpper(string(*extracted.Side))
	}

	var entry string
	switch {
	case extracted.EntryRangeLow != nil && extracted.EntryRangeHigh != nil:
		entry = fmt.Sprintf("%s - %s", extracted.EntryRangeLow.String(), extracted.EntryRangeHigh.String())
	case extracted.Entry != nil:
		entry = extracted.Entry.String()
	default:
		entry = "Market"
	}

	sl := "-"
	if extracted.StopLoss != nil {
		sl = extracted.StopLoss.String()
	}

	var tpLines []string
	for i, tp := range extracted.TakeProfits {
		tpLines = append(tpLines, fmt.Sprintf("🔹 **TP%d:** %s", i+1, tp.String()))
	}
	tpText := strings.Join(tpLines, "\n")
	if tpText == "" {
		tpText = "🔹 **TP:** -"
	}

	reasoning := "No extra details"
	if extracted.LLMAssisted && extracted.LLMReasoning != "" {
		reasoning = extracted.LLMReasoning
	}

	return fmt.Sprintf(
		"🔔 **%s: %s**\n"+
			"━━━━━━━━━━━━━━\n"+
			"🔹 **Entry:** %s\n"+
			"🔹 **SL:** %s\n"+
			"%s\n"+
			"━━━━━━━━━━━━━━\n"+
			"📊 **Analysis:**_%s_",
		side, symbol, entry, sl, tpText, reasoning,
	)
}

// ForwardToSubscribers sends the formatted signal to every active
// Subscriber, logging and continuing past individual delivery failures.
func ForwardToSubscribers(sender MessageSender, subscribers []domain.Subscriber, text string) []error {
	var errs []error
	for _, sub := range subscribers {
		if !sub.Active {
			continue
		}
		if err := sender.SendMessage(sub.ExternalAddress, text); err != nil {
			errs = append(errs, fmt.Errorf("subscriber %s: %w", sub.Label, err))
		}
	}
	return errs
}
