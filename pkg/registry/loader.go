package registry

import "strings"

// ParseEnabled splits a comma-separated list of connector identifiers.
// Whitespace is trimmed, empty items and repeats are dropped, order is kept.
// An empty or blank value yields DefaultEnabled.
func ParseEnabled(value string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, item := range strings.Split(value, ",") {
		id := strings.ToLower(strings.TrimSpace(item))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return append([]string(nil), DefaultEnabled...)
	}
	return ids
}
