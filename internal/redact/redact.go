// Package redact scrubs sensitive information from strings before they are
// logged. Store errors routinely embed connection strings, storage account
// keys, SQL text and host names; none of those belong in operational logs.
package redact

import "regexp"

// Placeholders substituted for redacted fragments.
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedSQLPlaceholder        = "[REDACTED_SQL]"
	RedactedHostPlaceholder       = "[REDACTED_HOST]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// rules are applied in order; credential rules must run before the host
// rule so that a URL loses its userinfo before its host is replaced.
var rules = []rule{
	// user:password@ in database URLs
	{regexp.MustCompile(`(?i)(postgres|postgresql|mongodb(\+srv)?|https?)://[^@\s/]+@`), RedactedCredentialPlaceholder},
	// Azure storage connection string secrets
	{regexp.MustCompile(`(?i)(AccountKey|SharedAccessSignature|SharedAccessKey)=[^;\s]+`), RedactedKeyPlaceholder},
	// key=value and key: value secrets
	{regexp.MustCompile(`(?i)(password|passwd|pwd|secret|token|api[_-]?key)(\s*[=:]\s*)['"]?[^'"&;\s]{3,}`), RedactedCredentialPlaceholder},
	{regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b[\s\S]*?\b(FROM|INTO|SET|WHERE|RETURNING)\b[^:;]*`), RedactedSQLPlaceholder},
	{regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`), RedactedHostPlaceholder},
	{regexp.MustCompile(`\b\d{1,3}(?:\.\d{1,3}){3}(?::\d{1,5})?\b`), RedactedHostPlaceholder},
	{regexp.MustCompile(`(/[\w.-]+){2,}`), RedactedPathPlaceholder},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
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
