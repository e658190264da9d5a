package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// Raw request paths embed event identifiers, which would create one time
// series per event. Paths are folded into their route templates instead.

// PathOther is recorded for requests that match no known route.
const PathOther = "other"

var knownPaths = map[string]bool{
	"/":                                true,
	"/api/calendar/auth":               true,
	"/api/calendar/callback":           true,
	"/api/calendar/appointments":       true,
	"/api/calendar/colors":             true,
	"/api/calendar/providers":          true,
	"/api/calendar/chat":               true,
	"/api/chat":                        true,
	"/api/calendar/suggest-categories": true,
	"/api/calendar/categorize-events":  true,
	"/auth/login":                      true,
	"/auth/callback":                   true,
	"/auth/session":                    true,
	"/auth/logout":                     true,
	"/healthz":                         true,
	"/readyz":                          true,
	"/healthz/detailed":                true,

	"/api/calendar/appointments/{eventId}/color": true,
}

// NormalizePath maps a request path to a bounded label value.
//
// Example:
//
//	NormalizePath("/api/calendar/appointments/abc123/color") // "/api/calendar/appointments/{eventId}/color"
//	NormalizePath("/wp-login.php")                           // "other"
func NormalizePath(path string) string {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if knownPaths[path] {
		return path
	}

	const prefix = "/api/calendar/appointments/"
	if rest, ok := strings.CutPrefix(path, prefix); ok {
		if id, ok := strings.CutSuffix(rest, "/color"); ok && id != "" && !strings.Contains(id, "/") {
			return prefix + "{eventId}/color"
		}
	}

	return PathOther
}

// Operation types for calendar provider metrics.
const (
	OperationAuthURL     = "auth_url"
	OperationExchange    = "exchange"
	OperationRefresh     = "refresh"
	OperationList        = "list"
	OperationUpdateColor = "update_color"
	OperationColors      = "colors"
)

// Operation types for language model metrics.
const (
	LLMOperationStructured = "structured"
	LLMOperationChat       = "chat"
)
