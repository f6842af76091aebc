package extract

import "strings"

// CollapseLines joins multi-line OCR output into a single whitespace-joined
// line. Downstream LLM prompts expect one-line document records, so internal
// newlines become spaces and runs of whitespace collapse to one.
func CollapseLines(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
