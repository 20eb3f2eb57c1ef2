package identity

import "strings"

// legacyAliases maps retired addresses to their canonical replacement. The
// table intentionally holds the one known migration case; do not grow it
// without confirming the mapping with the backend owners.
var legacyAliases = map[string]string{
	"sidwagh724@gmail.com": "siddhantwagh724@gmail.com",
}

// NormalizeEmail canonicalises a user email before it is used in any backend
// request: lowercased, trimmed, and rewritten when it matches a legacy alias.
// Empty input normalises to the empty string.
func NormalizeEmail(raw string) string {
	if raw == "" {
		return ""
	}
	email := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := legacyAliases[email]; ok {
		return canonical
	}
	return email
}
