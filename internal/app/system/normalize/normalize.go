// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email trims and lower-cases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and collapses inner whitespace. Case is kept.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role trims and lower-cases a role value.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query-string value. Case is kept.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// AgentFilter trims an agent filter value; "all" means no filter.
func AgentFilter(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}
