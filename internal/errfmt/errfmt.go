// Package errfmt bounds untrusted strings before they enter error values
// or log records. Frame payloads come from the native component and can be
// arbitrarily large; a malformed megabyte frame must not become a
// megabyte error message.
package errfmt

import "unicode/utf8"

// MaxLen caps error content to prevent unbounded propagation.
const MaxLen = 4096

// SnippetLen caps raw frame excerpts attached to log records.
const SnippetLen = 256

// truncateUTF8 caps s at limit bytes, backtracking to a valid UTF-8 boundary.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	end := limit
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end]
}

// Truncate caps a string at MaxLen bytes with UTF-8-safe truncation.
func Truncate(s string) string {
	return truncateUTF8(s, MaxLen)
}

// Snippet returns a short, UTF-8-safe excerpt of a raw frame for logging.
func Snippet(frame []byte) string {
	return truncateUTF8(string(frame), SnippetLen)
}
