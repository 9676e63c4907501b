package insight

import "strings"

// extractJSON pulls a JSON value delimited by open/close out of a model
// reply. Markdown code fences are stripped first; otherwise the widest
// open...close span is used. Returns false when no candidate is present.
func extractJSON(reply string, open, shut byte) (string, bool) {
	if fenced, ok := unfence(reply); ok {
		reply = fenced
	}

	start := strings.IndexByte(reply, open)
	end := strings.LastIndexByte(reply, shut)
	if start < 0 || end <= start {
		return "", false
	}
	return reply[start : end+1], true
}

// unfence strips a ```json ... ``` (or plain ```) code fence.
func unfence(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Drop the language tag line.
		if lang := strings.TrimSpace(rest[:nl]); lang == "json" || lang == "" {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}
