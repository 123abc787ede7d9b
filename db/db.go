// Package db opens the GameDex SQLite database and keeps its schema
// migrated.
package db

import (
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	_ "modernc.org/sqlite"
)

// Open opens or creates a SQLite database at the given path and runs
// pending migrations. The connection is instrumented so queries show up
// in traces. Foreign keys are enforced on every pooled connection.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path)
	conn, err := otelsql.Open("sqlite", dsn,
		otelsql.WithAttributes(semconv.DBSystemSqlite),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrate(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return conn, nil
}

// migrate runs database migrations up to the current schema version.
func migrate(conn *sql.DB) error {
	if _, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var version int
	err := conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if version < 1 {
		if err := migrateV1(conn); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := migrateV2(conn); err != nil {
			return err
		}
	}

	return nil
}

// migrateV1 creates the initial schema.
func migrateV1(conn *sql.DB) error {
	schema := `
		-- Libraries are scanned root/sub-root directories
		CREATE TABLE IF NOT EXISTS libraries (
			id INTEGER PRIMARY KEY,
			path TEXT UNIQUE NOT NULL,
			platform TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS games (
			id INTEGER PRIMARY KEY,
			path TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			platform TEXT NOT NULL,
			description TEXT,
			release_date TEXT,
			critic_score REAL,
			user_score REAL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_games_name ON games(name);

		CREATE TABLE IF NOT EXISTS genres (
			id INTEGER PRIMARY KEY,
			name TEXT UNIQUE NOT NULL
		);

		CREATE TABLE IF NOT EXISTS excluded_paths (
			id INTEGER PRIMARY KEY,
			path TEXT UNIQUE NOT NULL
		);

		-- Many-to-many links
		CREATE TABLE IF NOT EXISTS game_genres (
			game_id INTEGER NOT NULL,
			genre_id INTEGER NOT NULL,
			PRIMARY KEY (game_id, genre_id),
			FOREIGN KEY(game_id) REFERENCES games(id) ON DELETE CASCADE,
			FOREIGN KEY(genre_id) REFERENCES genres(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_game_genres_genre_id ON game_genres(genre_id);

		CREATE TABLE IF NOT EXISTS game_libraries (
			game_id INTEGER NOT NULL,
			library_id INTEGER NOT NULL,
			PRIMARY KEY (game_id, library_id),
			FOREIGN KEY(game_id) REFERENCES games(id) ON DELETE CASCADE,
			FOREIGN KEY(library_id) REFERENCES libraries(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_game_libraries_library_id ON game_libraries(library_id);

		INSERT INTO schema_version (version) VALUES (1);
	`

	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute v1 migration: %w", err)
	}

	return nil
}

// migrateV2 adds per-provider detail page URLs.
func migrateV2(conn *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS game_urls (
			game_id INTEGER NOT NULL,
			provider TEXT NOT NULL,
			url TEXT NOT NULL,
			PRIMARY KEY (game_id, provider),
			FOREIGN KEY(game_id) REFERENCES games(id) ON DELETE CASCADE
		);

		INSERT INTO schema_version (version) VALUES (2);
	`

	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute v2 migration: %w", err)
	}

	return nil
}
