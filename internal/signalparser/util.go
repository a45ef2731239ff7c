package signalparser

import (
	"regexp"
	"strings"
)

func normalizeUpper(text string) string {
	return strings.ToUpper(text)
}

var wordSplitPattern = regexp.MustCompile(`[^A-Z0-9]+`)

func splitWords(upper string) []string {
	parts := wordSplitPattern.Split(upper, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
