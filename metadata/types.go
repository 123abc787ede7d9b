package metadata

import "context"

// SearchResult is one candidate returned by a provider search.
type SearchResult struct {
	Name        string
	ReleaseDate string  // ISO 8601 date string, may be empty
	Score       float64 // provider rating out of 100, 0 when unknown
	Handle      string  // opaque provider handle (e.g. "igdb:12345") used by FetchDetails
}

// GameRecord represents enriched information about a game from one or more providers.
type GameRecord struct {
	Name        string
	Description string
	ReleaseDate string   // ISO 8601 date string (approximate)
	CriticScore *float64 // Rating out of 100
	UserScore   *float64 // Rating out of 100
	Genres      []string
	DetailURLs  map[string]string // provider name -> detail page URL
}

// Provider defines the interface for fetching game metadata.
type Provider interface {
	// Name returns the provider name (e.g., "igdb").
	Name() string
	// Required reports whether a resolution may proceed without this provider.
	// Exactly one provider is required; it runs first and its resolved name
	// seeds the searches of the others.
	Required() bool
	// Search finds games matching the query.
	Search(ctx context.Context, query, platform string) ([]SearchResult, error)
	// FetchDetails fetches detailed metadata for a search result.
	// A nil record with nil error means the provider no longer knows the result.
	FetchDetails(ctx context.Context, sel SearchResult) (*GameRecord, error)
}
