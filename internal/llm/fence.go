package llm

import "strings"

// StripMarkdownFence unwraps a reply the model insisted on fencing despite
// instructions, e.g. "```json\n{...}\n```". Unfenced input passes through
// unchanged, so fenced and bare JSON parse identically downstream.
func StripMarkdownFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	// drop a language tag on the opening fence line ("json", "JSON", ...)
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		first := strings.TrimSpace(t[:i])
		if first == "" || !strings.ContainsAny(first, "{[") {
			t = t[i+1:]
		}
	}
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}
