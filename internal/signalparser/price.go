package signalparser

import (
	"regexp"

	"github.com/shopspring/decimal"
)

const priceTokenSrc = `\d{1,7}(?:\.\d{1,5})?`

var (
	priceTokenPattern = regexp.MustCompile(`\b` + priceTokenSrc + `\b`)

	entryRangePattern = regexp.MustCompile(
		`(?i)(?:entry|enter|open)?\s*(` + priceTokenSrc + `)\s*(?:-|–|—|to|/)\s*(` + priceTokenSrc + `)`)

	entrySinglePattern = regexp.MustCompile(
		`(?i)\b(?:entry|enter|open|@|at|buy|sell|price)\b\D{0,6}?(` + priceTokenSrc + `)`)

	stopLossPattern = regexp.MustCompile(
		`(?i)\b(?:sl|stop\s*loss|stoploss|stop|risk)\b\D{0,6}?(` + priceTokenSrc + `)`)

	// tpLabelPattern finds one TP label followed by its price list, which may
	// be a bare sequence of numbers or a parenthesised/slash/pipe-separated
	// list immediately after the label.
	tpLabelPattern = regexp.MustCompile(
		`(?i)\b(?:tp\d*|take\s*profit|target)\b\s*:?\s*\(?\s*(` + priceTokenSrc + `(?:\s*[\/\|,]\s*` + priceTokenSrc + `)*)\)?`)

	tpListSplitPattern = regexp.MustCompile(`[\/\|,]`)
)

// span is a half-open byte range already consumed by some extraction rule.
type span struct{ start, end int }

func (s span) overlaps(other span) bool {
	return s.start < other.end && other.start < s.end
}

type priceExtraction struct {
	entry          *decimal.Decimal
	entryRangeLow  *decimal.Decimal
	entryRangeHigh *decimal.Decimal
	stopLoss       *decimal.Decimal
	takeProfits    []decimal.Decimal
	consumed       []span
}

func parsePrice(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// extractPrices implements §4.1 "Price extraction" in full, including the
// fallback significant-token scan.
func extractPrices(text string) priceExtraction {
	var out priceExtraction

	// 1. Take profits first: TP labels are unambiguous anchors, and claiming
	// their list spans up front keeps a slash-delimited TP list from being
	// mistaken for an entry range by rule 2 below.
	seen := map[string]bool{}
	for _, m := range tpLabelPattern.FindAllStringSubmatchIndex(text, -1) {
		listText := text[m[2]:m[3]]
		out.consumed = append(out.consumed, span{m[0], m[1]})
		for _, tok := range tpListSplitPattern.Split(listText, -1) {
			tok = priceTokenPattern.FindString(tok)
			if tok == "" || seen[tok] {
				continue
			}
			if p, ok := parsePrice(tok); ok {
				seen[tok] = true
				out.takeProfits = append(out.takeProfits, p)
			}
		}
	}

	// 2. Entry range: first candidate not already claimed by a TP list,
	// accepted only if its ratio is in (0.5, 2.0).
	for _, m := range entryRangePattern.FindAllStringSubmatchIndex(text, -1) {
		full := span{m[0], m[1]}
		if withinAny(full, out.consumed) {
			continue
		}
		lowStr := text[m[2]:m[3]]
		highStr := text[m[4]:m[5]]
		low, lowOK := parsePrice(lowStr)
		high, highOK := parsePrice(highStr)
		if !lowOK || !highOK {
			continue
		}
		a, b := low, high
		if a.GreaterThan(b) {
			a, b = b, a
		}
		if a.IsZero() {
			continue
		}
		ratio, _ := b.Div(a).Float64()
		if ratio > 0.5 && ratio < 2.0 {
			out.entryRangeLow = &a
			out.entryRangeHigh = &b
			out.consumed = append(out.consumed, full)
			break
		}
	}

	// 3. Entry single (only if no range was accepted).
	if out.entryRangeLow == nil {
		if m := entrySinglePattern.FindStringSubmatchIndex(text); m != nil && !withinAny(span{m[2], m[3]}, out.consumed) {
			if p, ok := parsePrice(text[m[2]:m[3]]); ok {
				out.entry = &p
				out.consumed = append(out.consumed, span{m[2], m[3]})
			}
		}
	}

	// 4. Stop loss.
	if m := stopLossPattern.FindStringSubmatchIndex(text); m != nil && !withinAny(span{m[2], m[3]}, out.consumed) {
		if p, ok := parsePrice(text[m[2]:m[3]]); ok {
			out.stopLoss = &p
			out.consumed = append(out.consumed, span{m[2], m[3]})
		}
	}

	// 5. Fallback scan: remaining significant unassigned tokens fill missing
	// fields in order entry -> SL -> additional TPs.
	for _, m := range priceTokenPattern.FindAllStringIndex(text, -1) {
		sp := span{m[0], m[1]}
		if withinAny(sp, out.consumed) {
			continue
		}
		p, ok := parsePrice(text[m[0]:m[1]])
		if !ok {
			continue
		}
		if !isSignificant(p, out) {
			continue
		}

		switch {
		case out.entry == nil && out.entryRangeLow == nil:
			out.entry = &p
		case out.stopLoss == nil:
			out.stopLoss = &p
		default:
			out.takeProfits = append(out.takeProfits, p)
		}
		out.consumed = append(out.consumed, sp)
	}

	return out
}

func withinAny(sp span, consumed []span) bool {
	for _, c := range consumed {
		if sp.overlaps(c) {
			return true
		}
	}
	return false
}

// isSignificant implements the fallback-scan filter: value > 10, or within
// [0.5x, 2x] of the already-known entry.
func isSignificant(p decimal.Decimal, out priceExtraction) bool {
	ten := decimal.NewFromInt(10)
	if p.GreaterThan(ten) {
		return true
	}
	var reference *decimal.Decimal
	if out.entry != nil {
		reference = out.entry
	} else if out.entryRangeLow != nil {
		reference = out.entryRangeLow
	}
	if reference == nil || reference.IsZero() {
		return false
	}
	ratio, _ := p.Div(*reference).Float64()
	return ratio >= 0.5 && ratio <= 2.0
}
