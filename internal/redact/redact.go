// Package redact provides utilities for redacting sensitive information from
// strings before they are logged. Error messages that bubble up from the
// database driver, the Gemini client or the auth layer can carry connection
// strings, API keys, token material or user data; this package scrubs them so
// handlers can log error details without leaking secrets.
package redact

import "regexp"

// Redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
)

// replacements holds the precompiled patterns in application order. Order
// matters: more specific patterns run before the broad ones that could
// otherwise consume part of their match.
var replacements = []struct {
	pattern     *regexp.Regexp
	placeholder string
}{
	// Connection strings with inline credentials (postgres, redis, and
	// friends)
	{
		regexp.MustCompile(`(?i)(postgres|postgresql|redis|rediss|mysql|mongodb|amqp)://[^@\s]+@`),
		RedactedCredentialPlaceholder,
	},

	// Password parameters in messages or payload dumps
	{
		regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`),
		RedactedCredentialPlaceholder,
	},

	// Google API keys (the Gemini client authenticates with these)
	{
		regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`),
		RedactedKeyPlaceholder,
	},

	// bcrypt password hashes
	{
		regexp.MustCompile(`\$2[abxy]\$\d{2}\$[./A-Za-z0-9]{53}`),
		"[REDACTED_HASH]",
	},

	// Generic credentials and tokens following a keyword
	{
		regexp.MustCompile(`(?i)(api[_-]?key|token|secret|key|access|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`),
		RedactedKeyPlaceholder,
	},

	// JWT tokens: the standard three-part base64url-encoded format
	{
		regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
		"[REDACTED_JWT]",
	},

	// Unix file paths
	{
		regexp.MustCompile(`(/[\w.-]+){2,}`),
		RedactedPathPlaceholder,
	},

	// Stack trace fragments
	{
		regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`),
		"[STACK_TRACE_REDACTED]",
	},

	// Email addresses
	{
		regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`),
		"[REDACTED_EMAIL]",
	},

	// SQL queries and fragments
	{
		regexp.MustCompile(
			`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP|GRANT)[\s\w,*()]+(?:FROM|INTO|SET|TABLE|DATABASE|SCHEMA|VIEW)(?:[\s\w,*()='"]+)?`,
		),
		"[REDACTED_SQL]",
	},

	// Host names with optional ports
	{
		regexp.MustCompile(
			`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`,
		),
		"[REDACTED_HOST]",
	},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range replacements {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}

	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
