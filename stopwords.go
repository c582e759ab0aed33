package insightserver

import (
	"strings"
	"unicode"
)

// questionWords are common interrogative and command words carrying no
// topical signal of their own. They are excluded from keyword matching.
var questionWords = map[string]bool{
	"what": true, "which": true, "show": true,
	"find": true, "list": true, "give": true,
	"tell": true, "does": true, "have": true,
	"from": true, "with": true, "that": true,
	"this": true, "than": true, "were": true,
}

// keywords extracts unique lowercase content words from text. Short words
// and question words are dropped.
func keywords(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	seen := make(map[string]bool)
	var tokens []string
	for _, w := range words {
		w = strings.Trim(w, "-")
		if len(w) <= 3 || questionWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		tokens = append(tokens, w)
	}
	return tokens
}

// matchedKeywords returns how many tokens occur as substrings of text.
func matchedKeywords(tokens []string, text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			count++
		}
	}
	return count
}
