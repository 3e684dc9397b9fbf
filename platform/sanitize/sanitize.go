// Package sanitize provides text sanitization and comparison-key helpers.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// htmlTagRegex matches HTML tags
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
	nonNameRegex = regexp.MustCompile(`[^A-Z ]`)
	spaceRegex   = regexp.MustCompile(`\s+`)
	nonAlnum     = regexp.MustCompile(`[^a-z0-9]`)
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes free text such as lead notes.
func Text(s string) string {
	return StripHTML(s)
}

// NameKey uppercases, turns everything outside [A-Z ] into a space and
// collapses whitespace. "  ann-marie  o'neil " becomes "ANN MARIE O NEIL".
func NameKey(s string) string {
	upper := strings.ToUpper(s)
	upper = nonNameRegex.ReplaceAllString(upper, " ")
	upper = spaceRegex.ReplaceAllString(upper, " ")
	return strings.TrimSpace(upper)
}

// EmailKey trims and lowercases an email address.
func EmailKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AlnumKey lowercases and keeps only [a-z0-9]; used for loose name matches
// between applications and bookings.
func AlnumKey(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(s), "")
}
