package booking

import "strings"

// MatchCriteria are substrings that must all appear in a session card's text.
type MatchCriteria []string

// ParseCriteria splits a comma-separated list, dropping blanks.
func ParseCriteria(s string) MatchCriteria {
	parts := strings.Split(s, ",")
	var out MatchCriteria
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// CardMatches reports whether every criterion is a substring of text.
// Empty criteria match any card.
func CardMatches(text string, criteria MatchCriteria) bool {
	for _, c := range criteria {
		if !strings.Contains(text, c) {
			return false
		}
	}
	return true
}

// ChooseCard returns the index of the first card whose text matches.
func ChooseCard(texts []string, criteria MatchCriteria) (int, bool) {
	for i, t := range texts {
		if CardMatches(t, criteria) {
			return i, true
		}
	}
	return -1, false
}
