// internal/data/search.go
package data

import "strings"

// Searchable is implemented by records that expose a free-text blob of
// their searchable fields.
type Searchable interface {
	SearchText() string
}

// MatchesQuery reports whether text contains query, case-insensitively.
// An empty or whitespace-only query matches everything.
func MatchesQuery(query, text string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(query))
}

// FilterByQuery returns the subsequence of records whose search text
// contains query, case-insensitively. It is a pure function over
// already-loaded data: no I/O, order preserved, the input slice untouched.
func FilterByQuery[T Searchable](records []T, query string) []T {
	if strings.TrimSpace(query) == "" {
		return records
	}

	filtered := []T{}
	for _, record := range records {
		if MatchesQuery(query, record.SearchText()) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}
