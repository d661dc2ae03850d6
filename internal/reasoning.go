package internal

import (
	"regexp"
	"strings"
)

// reasoningBlock matches a complete <think>…</think> block, case-insensitively and across lines.
// An opening marker without a close is not a block and is left in the text.
var reasoningBlock = regexp.MustCompile(`(?is)<think>(.*?)</think>`)

// SplitReasoning separates reasoning blocks from the visible reply text.
// The visible text has every block removed and surrounding whitespace trimmed.
func SplitReasoning(text string) (visible string, reasoning []string) {
	if !HasReasoning(text) {
		return strings.TrimSpace(text), nil
	}
	for _, m := range reasoningBlock.FindAllStringSubmatch(text, -1) {
		if r := strings.TrimSpace(m[1]); r != "" {
			reasoning = append(reasoning, r)
		}
	}
	return StripReasoning(text), reasoning
}

// StripReasoning removes reasoning blocks and trims the result
func StripReasoning(text string) string {
	return strings.TrimSpace(reasoningBlock.ReplaceAllString(text, ""))
}

// HasReasoning reports whether text contains at least one complete reasoning block
func HasReasoning(text string) bool {
	return reasoningBlock.MatchString(text)
}
