package execution

import (
	"github.com/signalbridge/platform/internal/apperr"
	"github.com/signalbridge/platform/internal/domain"
)

const minConfidence = 0.5

// validate implements §4.3's pre-broker-call validation rules: symbol/side
// presence, minimum confidence, and (when entry, SL, and TP are all present)
// the buy/sell orientation rule of §3.
func validate(exec domain.Execution, extracted domain.ExtractedSignal) error {
	if exec.Symbol == "" {
		return apperr.Validation("symbol is required")
	}
	if extracted.Side == nil {
		return apperr.Validation("side is required")
	}
	if extracted.Confidence < minConfidence {
		return apperr.Validation("confidence below minimum threshold")
	}

	entry := exec.PlannedEntry
	sl := exec.PlannedSL
	tp := exec.PlannedTP
	if entry == nil || sl == nil || tp == nil {
		return nil
	}

	switch exec.Side {
	case domain.SideBuy:
		if !(sl.LessThan(*entry) && entry.LessThan(*tp)) {
			return apperr.Validation("invalid price levels: buy requires SL < entry < TP")
		}
	case domain.SideSell:
		if !(tp.LessThan(*entry) && entry.LessThan(*sl)) {
			return apperr.Validation("invalid price levels: sell requires TP < entry < SL")
		}
	}
	return nil
}
