package metadata

// SearchContext remembers candidate names the user has already rejected
// while resolving a single path. It is scoped to one resolution attempt,
// shared across providers and re-searches, and never persisted.
// Name matching is case-sensitive exact match.
type SearchContext struct {
	excluded map[string]struct{}
}

// NewSearchContext returns an empty exclusion memory.
func NewSearchContext() *SearchContext {
	return &SearchContext{excluded: make(map[string]struct{})}
}

// Exclude records names as rejected.
func (c *SearchContext) Exclude(names ...string) {
	for _, name := range names {
		c.excluded[name] = struct{}{}
	}
}

// IsExcluded reports whether a name was previously rejected.
func (c *SearchContext) IsExcluded(name string) bool {
	_, ok := c.excluded[name]
	return ok
}

// Len returns the number of remembered names.
func (c *SearchContext) Len() int {
	return len(c.excluded)
}

// Filter removes previously-rejected results. If filtering would leave
// nothing to show, the original set is returned unchanged so the caller
// is never dead-ended with an empty choice.
func (c *SearchContext) Filter(results []SearchResult) []SearchResult {
	if len(c.excluded) == 0 {
		return results
	}

	filtered := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if !c.IsExcluded(r.Name) {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return results
	}
	return filtered
}
