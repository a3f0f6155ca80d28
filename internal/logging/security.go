// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package logging

import "strings"

// maxFieldLen bounds user-supplied values in log output. Addresses and
// keywords are short; anything longer is an anomaly worth truncating.
const maxFieldLen = 200

// SanitizeToken masks key material, showing only first and last 4 characters.
// Used when an AMap or Anthropic API key must appear in a log message.
// Example: "7f3a9c2e81d4b6f0a5c8e1d2" -> "7f3a...e1d2"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeField neutralizes user-supplied free text for logging. Carriage
// returns and newlines would let a crafted address forge additional log
// records; they are replaced before the value is emitted. Long values are
// truncated to maxFieldLen.
func SanitizeField(s string) string {
	if s == "" {
		return ""
	}
	s = strings.NewReplacer("\r", "\\r", "\n", "\\n", "\t", " ").Replace(s)
	if len(s) > maxFieldLen {
		// Cut on a rune boundary; the inputs are usually CJK text.
		cut := maxFieldLen
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}

// SanitizeFields applies SanitizeField to every element, for logging
// location lists and requirement lists.
func SanitizeFields(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = SanitizeField(s)
	}
	return out
}

// isRuneStart reports whether b can begin a UTF-8 encoded rune.
func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
