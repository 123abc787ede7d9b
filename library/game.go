package library

import "time"

// Game is a cataloged game directory with its merged provider metadata.
type Game struct {
	ID          int64
	Path        string // unique across all games
	Name        string
	Platform    string
	Description string
	ReleaseDate string
	CriticScore *float64
	UserScore   *float64
	Genres      []string
	LibraryIDs  []int64
	DetailURLs  map[string]string // provider name -> detail page URL
	UpdatedAt   time.Time
}

// Library is a registered root/sub-root directory scanned for game
// candidates. A directory is never both a library and a game.
type Library struct {
	ID        int64
	Path      string // unique, never a game path
	Platform  string
	Name      string
	CreatedAt time.Time
}

// Genre is a shared classification. Genres are created lazily the first
// time any game reports them and deleted once no game links remain.
type Genre struct {
	ID   int64
	Name string // unique, case-sensitive key
}

// ExcludedPath marks a directory the pipeline must never re-offer
// for matching.
type ExcludedPath struct {
	ID   int64
	Path string
}
