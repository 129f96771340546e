package utils

import "strings"

// TruncateRunes returns at most limit runes of s without splitting a character
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}

// TruncateForLog trims s and shortens it to limit runes, marking the cut with an ellipsis
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	truncated := TruncateRunes(s, limit)
	if len(truncated) < len(s) {
		return truncated + "..."
	}
	return truncated
}
