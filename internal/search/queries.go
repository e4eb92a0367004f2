package search

import "strings"

// BuildQueries expands one core keyword plus its related keywords into an
// ordered, deduplicated query list: the core keyword alone, then the core
// keyword paired with each non-blank related keyword.
func BuildQueries(coreKeyword string, relatedKeywords []string) []string {
	seen := map[string]struct{}{}
	queries := make([]string, 0, len(relatedKeywords)+1)

	add := func(query string) {
		if query == "" {
			return
		}
		if _, dup := seen[query]; dup {
			return
		}
		seen[query] = struct{}{}
		queries = append(queries, query)
	}

	core := strings.TrimSpace(coreKeyword)
	add(core)
	for _, keyword := range relatedKeywords {
		candidate := strings.TrimSpace(keyword)
		if candidate == "" {
			continue
		}
		if core != "" {
			add(core + " " + candidate)
		}
	}

	return queries
}
