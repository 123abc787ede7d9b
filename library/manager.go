package library

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ykrasik/gamedex/metadata"
)

// Manager owns the persistent catalog: games, libraries, genres, excluded
// paths and their links. Writes assume the single-worker model; there is
// never more than one in-flight scan or path resolution.
type Manager struct {
	db *sql.DB
}

// NewManager creates a new catalog manager.
func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// AddLibrary registers a new scannable directory.
func (m *Manager) AddLibrary(ctx context.Context, path, platform, name string) (*Library, error) {
	// A directory cannot simultaneously be a game, a library and excluded.
	if err := m.checkPathFree(ctx, path, "add library", "games", "excluded_paths"); err != nil {
		return nil, err
	}

	result, err := m.db.ExecContext(ctx, `
		INSERT INTO libraries (path, platform, name)
		VALUES (?, ?, ?)
	`, path, platform, name)
	if err != nil {
		return nil, WrapDBError(err, "add library")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get library ID: %w", err)
	}

	return m.GetLibrary(ctx, id)
}

// GetLibrary retrieves a library by ID.
func (m *Manager) GetLibrary(ctx context.Context, id int64) (*Library, error) {
	lib := &Library{}
	err := m.db.QueryRowContext(ctx, `
		SELECT id, path, platform, name, created_at
		FROM libraries WHERE id = ?
	`, id).Scan(&lib.ID, &lib.Path, &lib.Platform, &lib.Name, &lib.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, NotFoundError("library", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, WrapDBError(err, "get library")
	}
	return lib, nil
}

// GetLibraryByPath retrieves a library by its filesystem path.
func (m *Manager) GetLibraryByPath(ctx context.Context, path string) (*Library, error) {
	lib := &Library{}
	err := m.db.QueryRowContext(ctx, `
		SELECT id, path, platform, name, created_at
		FROM libraries WHERE path = ?
	`, path).Scan(&lib.ID, &lib.Path, &lib.Platform, &lib.Name, &lib.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, NotFoundError("library", path)
	}
	if err != nil {
		return nil, WrapDBError(err, "get library")
	}
	return lib, nil
}

// ListLibraries returns all libraries ordered by path.
func (m *Manager) ListLibraries(ctx context.Context) ([]*Library, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, path, platform, name, created_at
		FROM libraries ORDER BY path
	`)
	if err != nil {
		return nil, WrapDBError(err, "list libraries")
	}
	defer func() { _ = rows.Close() }()

	var libraries []*Library
	for rows.Next() {
		lib := &Library{}
		if err := rows.Scan(&lib.ID, &lib.Path, &lib.Platform, &lib.Name, &lib.CreatedAt); err != nil {
			return nil, WrapDBError(err, "list libraries")
		}
		libraries = append(libraries, lib)
	}
	return libraries, rows.Err()
}

// DeleteLibrary removes a library and its membership links. It does not
// delete the games themselves; cascading game deletion is the caller's
// responsibility.
func (m *Manager) DeleteLibrary(ctx context.Context, id int64) error {
	// Link rows go via ON DELETE CASCADE.
	result, err := m.db.ExecContext(ctx, "DELETE FROM libraries WHERE id = ?", id)
	if err != nil {
		return WrapDBError(err, "delete library")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return NotFoundError("library", fmt.Sprintf("%d", id))
	}
	return nil
}

// AddGame inserts a merged provider record as a new game, lazily creating
// genres and linking the game to the given libraries. The insert is
// atomic: on any failure no partial game or links remain observable.
func (m *Manager) AddGame(ctx context.Context, rec *metadata.GameRecord, path, platform string, libraryIDs []int64) (*Game, error) {
	if rec == nil || rec.Name == "" {
		return nil, &CatalogError{Op: "add game", Subject: path, Err: fmt.Errorf("%w: empty record", ErrInvalidArg)}
	}
	// The path must not already be a library or excluded.
	if err := m.checkPathFree(ctx, path, "add game", "libraries", "excluded_paths"); err != nil {
		return nil, err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, WrapDBError(err, "add game")
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO games (path, name, platform, description, release_date, critic_score, user_score)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, path, rec.Name, platform, nullString(rec.Description), nullString(rec.ReleaseDate), rec.CriticScore, rec.UserScore)
	if err != nil {
		return nil, WrapDBError(err, "add game")
	}
	gameID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get game ID: %w", err)
	}

	for provider, url := range rec.DetailURLs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO game_urls (game_id, provider, url) VALUES (?, ?, ?)
		`, gameID, provider, url); err != nil {
			return nil, WrapDBError(err, "add game url")
		}
	}

	for _, genre := range rec.Genres {
		genreID, err := getOrCreateGenre(ctx, tx, genre)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO game_genres (game_id, genre_id) VALUES (?, ?)
		`, gameID, genreID); err != nil {
			return nil, WrapDBError(err, "link genre")
		}
	}

	for _, libID := range libraryIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO game_libraries (game_id, library_id) VALUES (?, ?)
		`, gameID, libID); err != nil {
			return nil, WrapDBError(err, "link library")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, WrapDBError(err, "add game")
	}

	return m.GetGame(ctx, gameID)
}

// getOrCreateGenre finds a genre by exact name or creates it.
// Race-free under the single-writer model; a multi-writer deployment
// would need an atomic upsert instead.
func getOrCreateGenre(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM genres WHERE name = ?", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, WrapDBError(err, "get genre")
	}

	result, err := tx.ExecContext(ctx, "INSERT INTO genres (name) VALUES (?)", name)
	if err != nil {
		return 0, WrapDBError(err, "create genre")
	}
	return result.LastInsertId()
}

// GetGame retrieves a fully hydrated game by ID.
func (m *Manager) GetGame(ctx context.Context, id int64) (*Game, error) {
	game, err := m.scanGame(m.db.QueryRowContext(ctx, `
		SELECT id, path, name, platform, description, release_date, critic_score, user_score, updated_at
		FROM games WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, NotFoundError("game", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, WrapDBError(err, "get game")
	}
	if err := m.hydrateGame(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

// GetGameByPath retrieves a fully hydrated game by its filesystem path.
func (m *Manager) GetGameByPath(ctx context.Context, path string) (*Game, error) {
	game, err := m.scanGame(m.db.QueryRowContext(ctx, `
		SELECT id, path, name, platform, description, release_date, critic_score, user_score, updated_at
		FROM games WHERE path = ?
	`, path))
	if err == sql.ErrNoRows {
		return nil, NotFoundError("game", path)
	}
	if err != nil {
		return nil, WrapDBError(err, "get game")
	}
	if err := m.hydrateGame(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (m *Manager) scanGame(row rowScanner) (*Game, error) {
	game := &Game{}
	var description, releaseDate sql.NullString
	var criticScore, userScore sql.NullFloat64
	err := row.Scan(&game.ID, &game.Path, &game.Name, &game.Platform,
		&description, &releaseDate, &criticScore, &userScore, &game.UpdatedAt)
	if err != nil {
		return nil, err
	}
	game.Description = description.String
	game.ReleaseDate = releaseDate.String
	if criticScore.Valid {
		game.CriticScore = &criticScore.Float64
	}
	if userScore.Valid {
		game.UserScore = &userScore.Float64
	}
	return game, nil
}

func (m *Manager) hydrateGame(ctx context.Context, game *Game) error {
	rows, err := m.db.QueryContext(ctx, `
		SELECT g.name FROM genres g
		JOIN game_genres gg ON gg.genre_id = g.id
		WHERE gg.game_id = ? ORDER BY g.name
	`, game.ID)
	if err != nil {
		return WrapDBError(err, "get game genres")
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return WrapDBError(err, "get game genres")
		}
		game.Genres = append(game.Genres, name)
	}
	_ = rows.Close()

	rows, err = m.db.QueryContext(ctx, `
		SELECT library_id FROM game_libraries WHERE game_id = ? ORDER BY library_id
	`, game.ID)
	if err != nil {
		return WrapDBError(err, "get game libraries")
	}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return WrapDBError(err, "get game libraries")
		}
		game.LibraryIDs = append(game.LibraryIDs, id)
	}
	_ = rows.Close()

	rows, err = m.db.QueryContext(ctx, `
		SELECT provider, url FROM game_urls WHERE game_id = ?
	`, game.ID)
	if err != nil {
		return WrapDBError(err, "get game urls")
	}
	game.DetailURLs = make(map[string]string)
	for rows.Next() {
		var provider, url string
		if err := rows.Scan(&provider, &url); err != nil {
			_ = rows.Close()
			return WrapDBError(err, "get game urls")
		}
		game.DetailURLs[provider] = url
	}
	_ = rows.Close()

	return nil
}

// ListGames returns all games, hydrated, ordered by name.
func (m *Manager) ListGames(ctx context.Context) ([]*Game, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, path, name, platform, description, release_date, critic_score, user_score, updated_at
		FROM games ORDER BY name
	`)
	if err != nil {
		return nil, WrapDBError(err, "list games")
	}

	var games []*Game
	for rows.Next() {
		game, err := m.scanGame(rows)
		if err != nil {
			_ = rows.Close()
			return nil, WrapDBError(err, "list games")
		}
		games = append(games, game)
	}
	_ = rows.Close()

	for _, game := range games {
		if err := m.hydrateGame(ctx, game); err != nil {
			return nil, err
		}
	}
	return games, nil
}

// DeleteGame removes a game, its links, and any genre left orphaned by
// the removal. Deleting a game that no longer exists is a referential
// integrity violation and surfaces as ErrNotFound.
func (m *Manager) DeleteGame(ctx context.Context, id int64) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return WrapDBError(err, "delete game")
	}
	defer func() { _ = tx.Rollback() }()

	// Remember linked genres before the cascade removes the links.
	rows, err := tx.QueryContext(ctx, "SELECT genre_id FROM game_genres WHERE game_id = ?", id)
	if err != nil {
		return WrapDBError(err, "delete game")
	}
	var genreIDs []int64
	for rows.Next() {
		var genreID int64
		if err := rows.Scan(&genreID); err != nil {
			_ = rows.Close()
			return WrapDBError(err, "delete game")
		}
		genreIDs = append(genreIDs, genreID)
	}
	_ = rows.Close()

	result, err := tx.ExecContext(ctx, "DELETE FROM games WHERE id = ?", id)
	if err != nil {
		return WrapDBError(err, "delete game")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return NotFoundError("game", fmt.Sprintf("%d", id))
	}

	// No orphan genres persist: drop genres whose last link just vanished.
	for _, genreID := range genreIDs {
		var remaining int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM game_genres WHERE genre_id = ?", genreID).Scan(&remaining); err != nil {
			return WrapDBError(err, "delete game")
		}
		if remaining == 0 {
			if _, err := tx.ExecContext(ctx, "DELETE FROM genres WHERE id = ?", genreID); err != nil {
				return WrapDBError(err, "delete orphan genre")
			}
		}
	}

	return tx.Commit()
}

// IsGamePath reports whether the path is already mapped to a game.
func (m *Manager) IsGamePath(ctx context.Context, path string) (bool, error) {
	return m.pathExists(ctx, "games", path)
}

// IsLibraryPath reports whether the path is a registered library.
func (m *Manager) IsLibraryPath(ctx context.Context, path string) (bool, error) {
	return m.pathExists(ctx, "libraries", path)
}

// IsExcludedPath reports whether the path has been excluded from matching.
func (m *Manager) IsExcludedPath(ctx context.Context, path string) (bool, error) {
	return m.pathExists(ctx, "excluded_paths", path)
}

func (m *Manager) pathExists(ctx context.Context, table, path string) (bool, error) {
	var one int
	err := m.db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE path = ?", path).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, WrapDBError(err, "check path")
	}
	return true, nil
}

// AddExcludedPath marks a directory as never to be offered for matching.
func (m *Manager) AddExcludedPath(ctx context.Context, path string) (*ExcludedPath, error) {
	if err := m.checkPathFree(ctx, path, "exclude path", "games", "libraries"); err != nil {
		return nil, err
	}

	result, err := m.db.ExecContext(ctx, "INSERT INTO excluded_paths (path) VALUES (?)", path)
	if err != nil {
		return nil, WrapDBError(err, "exclude path")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get excluded path ID: %w", err)
	}
	return &ExcludedPath{ID: id, Path: path}, nil
}

// ListExcludedPaths returns all excluded paths ordered by path.
func (m *Manager) ListExcludedPaths(ctx context.Context) ([]*ExcludedPath, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT id, path FROM excluded_paths ORDER BY path")
	if err != nil {
		return nil, WrapDBError(err, "list excluded paths")
	}
	defer func() { _ = rows.Close() }()

	var paths []*ExcludedPath
	for rows.Next() {
		p := &ExcludedPath{}
		if err := rows.Scan(&p.ID, &p.Path); err != nil {
			return nil, WrapDBError(err, "list excluded paths")
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// DeleteExcludedPath removes an exclusion.
func (m *Manager) DeleteExcludedPath(ctx context.Context, id int64) error {
	result, err := m.db.ExecContext(ctx, "DELETE FROM excluded_paths WHERE id = ?", id)
	if err != nil {
		return WrapDBError(err, "delete excluded path")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return NotFoundError("excluded path", fmt.Sprintf("%d", id))
	}
	return nil
}

// ListGenres returns all genres ordered by name.
func (m *Manager) ListGenres(ctx context.Context) ([]*Genre, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT id, name FROM genres ORDER BY name")
	if err != nil {
		return nil, WrapDBError(err, "list genres")
	}
	defer func() { _ = rows.Close() }()

	var genres []*Genre
	for rows.Next() {
		g := &Genre{}
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, WrapDBError(err, "list genres")
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// DeleteOrphanGenres removes genres with zero game links and returns how
// many were deleted.
func (m *Manager) DeleteOrphanGenres(ctx context.Context) (int, error) {
	result, err := m.db.ExecContext(ctx, `
		DELETE FROM genres WHERE id NOT IN (SELECT DISTINCT genre_id FROM game_genres)
	`)
	if err != nil {
		return 0, WrapDBError(err, "delete orphan genres")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check delete result: %w", err)
	}
	return int(rows), nil
}

// GamesOnlyInLibrary returns IDs of games whose sole library membership
// is the given library.
func (m *Manager) GamesOnlyInLibrary(ctx context.Context, libraryID int64) ([]int64, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT game_id FROM game_libraries
		WHERE game_id IN (SELECT game_id FROM game_libraries WHERE library_id = ?)
		GROUP BY game_id
		HAVING COUNT(*) = 1
	`, libraryID)
	if err != nil {
		return nil, WrapDBError(err, "list library games")
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, WrapDBError(err, "list library games")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// checkPathFree enforces path mutual exclusion: a path may be a game, a
// library or excluded, never more than one at a time. Callers name the
// other kinds' tables; a duplicate within their own table surfaces as
// ErrDuplicate from the insert's UNIQUE constraint.
func (m *Manager) checkPathFree(ctx context.Context, path, op string, tables ...string) error {
	kinds := map[string]string{
		"games":          "a game",
		"libraries":      "a library",
		"excluded_paths": "excluded",
	}
	for _, table := range tables {
		exists, err := m.pathExists(ctx, table, path)
		if err != nil {
			return err
		}
		if exists {
			return &CatalogError{Op: op, Subject: path, Err: fmt.Errorf("%w: path is already %s", ErrInvalidArg, kinds[table])}
		}
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
