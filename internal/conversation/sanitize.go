package conversation

import "strings"

// Sanitize strips speculative multi-turn narration from a Chat reply before
// it is spoken. The model occasionally drifts into writing both sides of an
// imagined dialogue; cutting at the first "User:" line and stripping a
// leading "You:" prefix keeps the assistant from speaking the caller's part.
func Sanitize(raw string) string {
	text := raw
	if idx := strings.Index(text, "User:"); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "You:")
	return strings.TrimSpace(text)
}
