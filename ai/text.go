package ai

import "unicode/utf8"

// DefaultLanguageCode is used when a caller does not name a language.
const DefaultLanguageCode = "en"

// TruncateUTF8 shortens s to at most maxBytes without splitting a rune.
func TruncateUTF8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	if maxBytes <= 0 {
		return ""
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
