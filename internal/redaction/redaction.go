// Package redaction masks credentials before text reaches logs, error
// messages or terminal output.
package redaction

import (
	"regexp"
)

const replacement = "[REDACTED]"

// sensitivePatterns are compiled once and applied in order.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)\S+`),                                  // Authorization header values
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+(?:\.[a-zA-Z0-9_-]*)?`), // JWT tokens
	regexp.MustCompile(`(?i)("(?:password|jwt|token)"\s*:\s*)"[^"]*"`),          // JSON credential fields
	regexp.MustCompile(`(?i)(password\s*[:=]\s*)\S+`),                           // password=...
}

// Redact replaces bearer tokens, JWTs and password values in text with
// [REDACTED]. Keys and prefixes are kept so messages stay readable.
func Redact(text string) string {
	for _, re := range sensitivePatterns {
		if re.NumSubexp() > 0 {
			text = re.ReplaceAllString(text, "${1}"+replacement)
			continue
		}
		text = re.ReplaceAllString(text, replacement)
	}
	return text
}

// MaskToken shows the first six characters of a token followed by an
// ellipsis, or "" when the token is empty.
func MaskToken(token string) string {
	switch {
	case token == "":
		return ""
	case len(token) <= 6:
		return "***"
	default:
		return token[:6] + "..."
	}
}
