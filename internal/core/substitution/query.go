package substitution

import "strings"

// ParseMissingItem 從 "I don't have X"、"missing X"、"no X" 這類問句取出缺少的食材
func ParseMissingItem(query string) string {
	lower := strings.ToLower(strings.TrimSpace(query))
	for _, marker := range []string{"don't have", "dont have", "missing", "no "} {
		if i := strings.LastIndex(lower, marker); i >= 0 {
			item := strings.TrimSpace(lower[i+len(marker):])
			item = strings.TrimRight(item, "?.!")
			if item = strings.TrimSpace(item); item != "" {
				return item
			}
		}
	}
	return strings.TrimSpace(query)
}
