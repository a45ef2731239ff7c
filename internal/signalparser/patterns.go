package signalparser

import "regexp"

// commentaryPatterns implements §4.1 category-decision rule 1: TP-hit
// notifications, pip-count announcements, macro-news alerts, first-person
// analysis, disclaimers, and "signal coming" previews.
var commentaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)tp\d*\s*(hit|reached|✅|done)`),
	regexp.MustCompile(`(?i)\d+\+?\s*pips?\b`),
	regexp.MustCompile(`(?i)\b(nfp|cpi|fomc)\b`),
	regexp.MustCompile(`(?i)news\s+in\b`),
	regexp.MustCompile(`(?i)\bi\s+(think|believe|expect|see)\b`),
	regexp.MustCompile(`(?i)\b(disclaimer|not\s+financial\s+advice|trade\s+at\s+your\s+own\s+risk)\b`),
	regexp.MustCompile(`(?i)signal\s+(get\s+ready|coming)\b`),
}

func isCommentary(text string) bool {
	for _, p := range commentaryPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// modificationPattern pairs a sub-kind with its keyword regex, evaluated in
// order (§4.1 rule 2).
type modificationPattern struct {
	kind    string
	pattern *regexp.Regexp
}

var modificationPatterns = []modificationPattern{
	{"breakeven_move", regexp.MustCompile(`(?i)\b(move|moving|set)\b.*\b(be|break\s*even)\b`)},
	{"cancellation", regexp.MustCompile(`(?i)\b(cancel|cancelled|close\s+order|remove\s+order)\b`)},
	{"partial_close", regexp.MustCompile(`(?i)\b(close\s+(half|50%|partial)|take\s+partial(s)?|partial\s+close)\b`)},
	{"stop_adjustment", regexp.MustCompile(`(?i)\b(move|adjust|update|trail)\b.*\b(sl|stop\s*loss|stop)\b`)},
	{"target_adjustment", regexp.MustCompile(`(?i)\b(move|adjust|update|extend)\b.*\b(tp|target|take\s*profit)\b`)},
}

// classifyModification returns the first matching sub-kind, or "" if none match.
func classifyModification(text string) string {
	for _, mp := range modificationPatterns {
		if mp.pattern.MatchString(text) {
			return mp.kind
		}
	}
	return ""
}
