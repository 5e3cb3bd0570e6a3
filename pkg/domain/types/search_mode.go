package types

import "fmt"

// SearchMode selects how a query is executed against the index.
type SearchMode string

const (
	// SearchModeHybrid combines full-text relevance with vector similarity.
	SearchModeHybrid SearchMode = "hybrid"
	// SearchModeSemantic is hybrid plus a semantic reranking stage.
	SearchModeSemantic SearchMode = "semantic"
	// SearchModeKeyword runs full-text search only, no vector query.
	SearchModeKeyword SearchMode = "keyword"
	// SearchModeFull runs full-text search with the full Lucene syntax enabled.
	SearchModeFull SearchMode = "full"
)

// AllSearchModes returns all valid search modes
func AllSearchModes() []SearchMode {
	return []SearchMode{
		SearchModeHybrid,
		SearchModeSemantic,
		SearchModeKeyword,
		SearchModeFull,
	}
}

// IsValid checks if the search mode is valid
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeHybrid, SearchModeSemantic, SearchModeKeyword, SearchModeFull:
		return true
	default:
		return false
	}
}

// String returns the string representation of the search mode
func (m SearchMode) String() string {
	return string(m)
}

// ParseSearchMode parses a string into a SearchMode. An empty string
// defaults to hybrid.
func ParseSearchMode(s string) (SearchMode, error) {
	if s == "" {
		return SearchModeHybrid, nil
	}
	m := SearchMode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("invalid search mode: %s", s)
	}
	return m, nil
}
