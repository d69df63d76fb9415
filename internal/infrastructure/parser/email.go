package parser

import (
	"regexp"
	"strings"
)

var emailExpr = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

var (
	excludedDomains  = []string{"openreview.net"}
	excludedKeywords = []string{"noreply", "notification", "no-reply"}
)

// ExtractEmail returns the first contact address in text that is not a
// system address of the site itself.
func ExtractEmail(text string) (string, bool) {
	seen := map[string]struct{}{}
	for _, candidate := range emailExpr.FindAllString(text, -1) {
		lower := strings.ToLower(candidate)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}

		if isExcluded(lower) {
			continue
		}
		return candidate, true
	}
	return "", false
}

func isExcluded(lower string) bool {
	for _, d := range excludedDomains {
		if strings.Contains(lower, d) {
			return true
		}
	}
	for _, kw := range excludedKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
