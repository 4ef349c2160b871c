// Package tokens approximates LLM token counts for cost warnings. The
// estimate is a heuristic, not a tokenizer.
package tokens

import (
	"strings"
	"unicode/utf8"
)

// DefaultWarnThreshold is the estimate above which callers surface a cost
// warning. The call still proceeds.
const DefaultWarnThreshold = 8000

const (
	charsPerToken  = 4
	tokensPerWordN = 4
	tokensPerWordD = 3
)

// Estimate returns the larger of a characters/4 and a words*4/3 estimate.
// Both grow with input, so appending text never lowers the result.
func Estimate(text string) int {
	if text == "" {
		return 0
	}

	runes := utf8.RuneCountInString(text)
	byChars := (runes + charsPerToken - 1) / charsPerToken

	words := len(strings.Fields(text))
	byWords := (words*tokensPerWordN + tokensPerWordD - 1) / tokensPerWordD

	return max(byChars, byWords)
}

// ExceedsThreshold reports whether estimate should trigger a cost warning.
// A non-positive threshold falls back to DefaultWarnThreshold.
func ExceedsThreshold(estimate, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultWarnThreshold
	}
	return estimate > threshold
}
