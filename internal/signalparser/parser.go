// Package signalparser classifies raw channel text and, for actionable
// signals, extracts symbol/side/entry/stop-loss/take-profit fields — the Go
// rendition of the original service's signal_parser.py.
package signalparser

import (
	"regexp"

	"github.com/signalbridge/platform/internal/domain"
)

var (
	buyPattern  = regexp.MustCompile(`(?i)\b(buy|long)\b`)
	sellPattern = regexp.MustCompile(`(?i)\b(sell|short)\b`)
)

// modificationKinds maps classifyModification's string sub-kind onto the
// closed domain.ModificationType enumeration.
var modificationKinds = map[string]domain.ModificationType{
	"breakeven_move":    domain.ModificationBreakevenMove,
	"cancellation":      domain.ModificationCancellation,
	"partial_close":     domain.ModificationPartialClose,
	"stop_adjustment":   domain.ModificationStopAdjustment,
	"target_adjustment": domain.ModificationTargetAdjustment,
}

// Parse implements §4.1 end to end: category decision, then (for actionable
// signals) symbol resolution, side detection, price extraction, and the
// confidence formula.
func Parse(text string) domain.ExtractedSignal {
	category := classify(text)

	result := domain.ExtractedSignal{
		Category: category,
	}

	if category == domain.CategoryModification {
		if kind, ok := modificationKinds[classifyModification(text)]; ok {
			result.ModificationType = &kind
		}
	}

	if category != domain.CategoryActionableSignal {
		return result
	}

	symbol := resolveSymbol(text)
	side := resolveSide(text)
	prices := extractPrices(text)

	result.Symbol = symbol
	result.Side = side
	result.StopLoss = prices.stopLoss
	result.TakeProfits = prices.takeProfits

	switch {
	case prices.entryRangeLow != nil:
		result.EntryRangeLow = prices.entryRangeLow
		result.EntryRangeHigh = prices.entryRangeHigh
	case prices.entry != nil:
		result.Entry = prices.entry
	}

	result.Confidence = computeConfidence(result, text)

	return result
}

// classify implements the §4.1 category decision order: commentary first,
// then modification sub-kinds, then actionable signal, else commentary.
func classify(text string) domain.MessageCategory {
	if isCommentary(text) {
		return domain.CategoryCommentary
	}
	if classifyModification(text) != "" {
		return domain.CategoryModification
	}
	if looksActionable(text) {
		return domain.CategoryActionableSignal
	}
	return domain.CategoryCommentary
}

// looksActionable mirrors signal_parser.py's classify_message gate exactly:
// has_symbol AND has_entry AND (has_sl OR has_tp).
func looksActionable(text string) bool {
	if resolveSymbol(text) == nil {
		return false
	}
	prices := extractPrices(text)
	hasEntry := prices.entry != nil || prices.entryRangeLow != nil
	hasExit := prices.stopLoss != nil || len(prices.takeProfits) > 0
	return hasEntry && hasExit
}

func resolveSide(text string) *domain.Side {
	if buyPattern.MatchString(text) {
		s := domain.SideBuy
		return &s
	}
	if sellPattern.MatchString(text) {
		s := domain.SideSell
		return &s
	}
	return nil
}

// computeConfidence implements the §4.1 confidence formula verbatim: start
// at 0.5, add category/symbol/entry/SL/TP contributions, adjust for message
// length, penalize missing symbol or side, then clamp to [0, 1].
func computeConfidence(r domain.ExtractedSignal, text string) float64 {
	score := 0.5

	if r.Category == domain.CategoryActionableSignal {
		score += 0.15
	}
	if r.Symbol != nil {
		score += 0.15
	}
	if r.Entry != nil || r.EntryRangeLow != nil {
		score += 0.10
	}
	if r.StopLoss != nil {
		score += 0.10
	}
	if len(r.TakeProfits) > 0 {
		score += 0.10
	}

	switch {
	case len(text) < 20:
		score -= 0.05
	case len(text) > 200:
		score += 0.05
	}

	if r.Symbol == nil || r.Side == nil {
		score *= 0.7
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}
