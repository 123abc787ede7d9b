package library

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykrasik/gamedex/db"
	"github.com/ykrasik/gamedex/metadata"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func float64Ptr(f float64) *float64 { return &f }

func TestManager_AddLibrary(t *testing.T) {
	m := NewManager(setupTestDB(t))
	ctx := context.Background()

	lib, err := m.AddLibrary(ctx, "/games/pc", "pc", "PC Games")
	require.NoError(t, err)
	assert.NotZero(t, lib.ID)
	assert.Equal(t, "/games/pc", lib.Path)
	assert.Equal(t, "pc", lib.Platform)
	assert.Equal(t, "PC Games", lib.Name)
	assert.False(t, lib.CreatedAt.IsZero())

	// Same path again violates uniqueness.
	_, err = m.AddLibrary(ctx, "/games/pc", "pc", "Dup")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestManager_AddLibrary_PathMutualExclusion(t *testing.T) {
	m := NewManager(setupTestDB(t))
	ctx := context.Background()

	_, err := m.AddExcludedPath(ctx, "/games/junk")
	require.NoError(t, err)

	_, err = m.AddLibrary(ctx, "/games/junk", "pc", "Junk")
	assert.ErrorIs(t, err, ErrInvalidArg)
}

func TestManager_GetLibraryByPath(t *testing.T) {
	m := NewManager(setupTestDB(t))
	ctx := context.Background()

	created, err := m.AddLibrary(ctx, "/games/ps2", "ps2", "PS2")
	require.NoError(t, err)

	got, err := m.GetLibraryByPath(ctx, "/games/ps2")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = m.GetLibraryByPath(ctx, "/nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_DeleteLibrary(t *testing.T) {
	m := NewManager(setupTestDB(t))
	ctx := context.Background()

	lib, err := m.AddLibrary(ctx, "/games/pc", "pc", "PC")
	require.NoError(t, err)

	require.NoError(t, m.DeleteLibrary(ctx, lib.ID))
	assert.ErrorIs(t, m.DeleteLibrary(ctx, lib.ID), ErrNotFound)
}

func TestManager_AddGame(t *testing.T) {
	m := NewManager(setupTestDB(t))
	ctx := context.Background()

	lib, err := m.AddLibrary(ctx, "/games/pc", "pc", "PC")
	require.NoError(t, err)

	rec := &metadata.GameRecord{
		Name:        "Chrono Trigger",
		Description: "A time-travelling RPG",
		ReleaseDate: "1995-03-11",
		CriticScore: float64Ptr(95),
		Genres:      []string{"RPG", "Adventure"},
		DetailURLs:  map[string]string{"igdb": "https://igdb.com/games/chrono-trigger"},
	}
	game, err := m.AddGame(ctx, rec, "/games/pc/Chrono Trigger", "pc", []int64{lib.ID})
	require.NoError(t, err)

	assert.Equal(t, "Chrono Trigger", game.Name)
	assert.Equal(t, "/games/pc/Chrono Trigger", game.Path)
	assert.Equal(t, []string{"Adventure", "RPG"}, game.Genres)
	assert.Equal(t, []int64{lib.ID}, game.LibraryIDs)
	require.NotNil(t, game.CriticScore)
	assert.Equal(t, 95.0, *game.CriticScore)
	assert.Nil(t, game.UserScore)
	assert.Equal(t, "https://igdb.com/games/chrono-trigger", game.DetailURLs["igdb"])
}

func TestManager_AddGame_DuplicatePath(t *testing.T) {
	m := NewManager(setupTestDB(t))
	ctx := context.Background()

	rec := &metadata.GameRecord{Name: "Doom"}
	_, err := m.AddGame(ctx, rec, "/games/pc/Doom", "pc", nil)
	require.NoError(t, err)

	_, err = m.AddGame(ctx, rec, "/games/pc/Doom", "pc", nil)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NotErrorIs(t, err, ErrInvalidArg, "a duplicate is not a mutual exclusion violation")
}

func TestManager_AddGame_SharedGenres(t *testing.T) {
	m := NewManager(setupTestDB(t))
	ctx := context.Background()

	_, err := m.AddGame(ctx, &metadata.GameRecord{Name: "A", Genres: []string{"RPG"}}, "/g/a", "pc", nil)
	require.NoError(t, err)
	_, err = m.AddGame(ctx, &metadata.GameRecord{Name: "B", Genres: []string{"RPG"}}, "/g/b", "pc", nil)
	require.NoError(t, err)

	// One shared genre row, not two.
	genres, err := m.ListGenres(ctx)
	require.NoError(t, err)
	require.Len(t, genres, 1)
	assert.Equal(t, "RPG", genres[0].Name)
}

func TestManager_AddGame_EmptyRecord(t *testing.T) {
	m := NewManager(setupTestDB(t))

	_, err := m.AddGame(context.Background(), nil, "/g/x", "pc", nil)
	assert.ErrorIs(t, err, ErrInvalidArg)

	_, err = m.AddGame(context.Background(), &metadata.GameRecord{}, "/g/x", "pc", nil)
	assert.ErrorIs(t, err, ErrInvalidArg)
}

func TestManager_DeleteGame_CleansOrphanGenres(t *testing.T) {
	m := NewManager(setupTestDB(t))
	ctx := context.Background()

	a, err := m.AddGame(ctx, &metadata.GameRecord{Name: "A", Genres: []string{"RPG", "Puzzle"}}, "/g/a", "pc", nil)
	require.NoError(t, err)
	_, err = m.AddGame(ctx, &metadata.GameRecord{Name: "B", Genres: []string{"RPG"}}, "/g/b", "pc", nil)
	require.NoError(t, err)

	require.NoError(t, m.DeleteGame(ctx, a.ID))

	// Puzzle lost its last link and is gone; RPG survives via B.
	genres, err := m.ListGenres(ctx)
	require.NoError(t, err)
	require.Len(t, genres, 1)
	assert.Equal(t, "RPG", genres[0].Name)

	assert.ErrorIs(t, m.DeleteGame(ctx, a.ID), ErrNotFound)
}

func TestManager_ListGames(t *testing.T) {
	m := NewManager(setupTestDB(t))
	ctx := context.Background()

	_, err := m.AddGame(ctx, &metadata.GameRecord{Name: "Zelda"}, "/g/z", "snes", nil)
	require.NoError(t, err)
	_, err = m.AddGame(ctx, &metadata.GameRecord{Name: "Axiom"}, "/g/a", "pc", nil)
	require.NoError(t, err)

	games, err := m.ListGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "Axiom", games[0].Name)
	assert.Equal(t, "Zelda", games[1].Name)
}

func TestManager_PathPredicates(t *testing.T) {
	m := NewManager(setupTestDB(t))
	ctx := context.Background()

	lib, err := m.AddLibrary(ctx, "/games/pc", "pc", "PC")
	require.NoError(t, err)
	_, err = m.AddGame(ctx, &metadata.GameRecord{Name: "Doom"}, "/games/pc/Doom", "pc", []int64{lib.ID})
	require.NoError(t, err)
	_, err = m.AddExcludedPath(ctx, "/games/pc/Tools")
	require.NoError(t, err)

	isLib, err := m.IsLibraryPath(ctx, "/games/pc")
	require.NoError(t, err)
	assert.True(t, isLib)

	isGame, err := m.IsGamePath(ctx, "/games/pc/Doom")
	require.NoError(t, err)
	assert.True(t, isGame)

	isExcl, err := m.IsExcludedPath(ctx, "/games/pc/Tools")
	require.NoError(t, err)
	assert.True(t, isExcl)

	isGame, err = m.IsGamePath(ctx, "/games/pc/Tools")
	require.NoError(t, err)
	assert.False(t, isGame)
}

func TestManager_ExcludedPaths(t *testing.T) {
	m := NewManager(setupTestDB(t))
	ctx := context.Background()

	p, err := m.AddExcludedPath(ctx, "/games/pc/Redist")
	require.NoError(t, err)
	assert.NotZero(t, p.ID)

	_, err = m.AddExcludedPath(ctx, "/games/pc/Redist")
	assert.ErrorIs(t, err, ErrDuplicate)

	// Excluding a game path violates mutual exclusion.
	_, err = m.AddGame(ctx, &metadata.GameRecord{Name: "Doom"}, "/games/pc/Doom", "pc", nil)
	require.NoError(t, err)
	_, err = m.AddExcludedPath(ctx, "/games/pc/Doom")
	assert.ErrorIs(t, err, ErrInvalidArg)

	paths, err := m.ListExcludedPaths(ctx)
	require.NoError(t, err)
	require.Len(t, paths, 1)

	require.NoError(t, m.DeleteExcludedPath(ctx, p.ID))
	assert.ErrorIs(t, m.DeleteExcludedPath(ctx, p.ID), ErrNotFound)
}

func TestManager_DeleteOrphanGenres(t *testing.T) {
	database := setupTestDB(t)
	m := NewManager(database)
	ctx := context.Background()

	// Seed an orphan directly; normal operations never leave one.
	_, err := database.ExecContext(ctx, "INSERT INTO genres (name) VALUES ('Orphan')")
	require.NoError(t, err)
	_, err = m.AddGame(ctx, &metadata.GameRecord{Name: "A", Genres: []string{"RPG"}}, "/g/a", "pc", nil)
	require.NoError(t, err)

	n, err := m.DeleteOrphanGenres(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	genres, err := m.ListGenres(ctx)
	require.NoError(t, err)
	require.Len(t, genres, 1)
	assert.Equal(t, "RPG", genres[0].Name)
}

func TestManager_GamesOnlyInLibrary(t *testing.T) {
	m := NewManager(setupTestDB(t))
	ctx := context.Background()

	lib1, err := m.AddLibrary(ctx, "/games/pc", "pc", "PC")
	require.NoError(t, err)
	lib2, err := m.AddLibrary(ctx, "/games/shared", "pc", "Shared")
	require.NoError(t, err)

	only, err := m.AddGame(ctx, &metadata.GameRecord{Name: "Solo"}, "/games/pc/Solo", "pc", []int64{lib1.ID})
	require.NoError(t, err)
	_, err = m.AddGame(ctx, &metadata.GameRecord{Name: "Both"}, "/games/pc/Both", "pc", []int64{lib1.ID, lib2.ID})
	require.NoError(t, err)

	ids, err := m.GamesOnlyInLibrary(ctx, lib1.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{only.ID}, ids)
}

func TestWrapDBError_PassesContextErrors(t *testing.T) {
	err := WrapDBError(context.Canceled, "add game")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrDatabase)
}

func TestCatalogError_Unwrap(t *testing.T) {
	err := &CatalogError{Op: "get game", Subject: "/g/x", Err: ErrNotFound}
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "/g/x")
}
