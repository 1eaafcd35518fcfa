package llm

import "strings"

// StripCodeFences removes a leading/trailing markdown fence pair that some
// models wrap around their output (```json, ```markdown, or bare ```), and
// trims surrounding whitespace. Best effort: text without fences passes
// through untouched. Shared by the README (text) and analysis (JSON) paths,
// which diverge only at the parse step.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Remove opening fence line (```json, ```markdown or ```)
		if i := strings.Index(s, "\n"); i != -1 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		// Remove closing fence
		if i := strings.LastIndex(s, "```"); i != -1 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
