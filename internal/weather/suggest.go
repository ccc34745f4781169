package weather

import "context"

// Suggester turns free-text input into a candidate list for typeahead UI.
// It performs no caching, debouncing or deduplication; each call is an
// independent best-effort lookup.
type Suggester struct {
	source Source
}

// NewSuggester creates a Suggester backed by the given source.
func NewSuggester(source Source) *Suggester {
	return &Suggester{source: source}
}

// FetchSuggestions returns candidates for the query. An empty query returns
// an empty list without touching the source, and any fetch failure is
// swallowed to an empty list: suggestions are never a hard error.
func (s *Suggester) FetchSuggestions(ctx context.Context, query string) []CitySearchCandidate {
	if query == "" {
		return nil
	}

	candidates, err := s.source.SearchCities(ctx, query)
	if err != nil {
		return nil
	}
	return candidates
}
