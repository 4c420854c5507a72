package router

import (
	"unicode/utf8"
)

// TruncationMarker is appended to results cut by Truncate.
const TruncationMarker = "\n[output truncated]"

// Truncate cuts s down to roughly cut bytes when it exceeds max bytes,
// appending the truncation marker. Text at or under the bound passes through
// unchanged. The cut never splits a UTF-8 sequence.
func Truncate(s string, max, cut int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if cut >= len(s) {
		cut = len(s)
	} else {
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
	}
	return s[:cut] + TruncationMarker
}
