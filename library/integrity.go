package library

import (
	"context"
	"fmt"

	"github.com/ykrasik/gamedex/logging"
	"github.com/ykrasik/gamedex/tracing"
)

// Issue is one integrity problem found by a check.
type Issue struct {
	Check   string
	Detail  string
	Fixable bool
}

// IntegrityReport is the outcome of a full integrity pass.
type IntegrityReport struct {
	Issues []Issue
	Fixed  int
}

// OK reports whether the catalog passed every check.
func (r *IntegrityReport) OK() bool {
	return len(r.Issues) == 0
}

// IntegrityChecker verifies the catalog's structural invariants: every
// path maps to at most one of game/library/exclusion, no genre exists
// without a game link, and every game belongs to at least one library.
type IntegrityChecker struct {
	manager *Manager
	fix     bool
}

// NewIntegrityChecker creates a checker. With fix enabled, fixable
// issues are repaired as they are found.
func NewIntegrityChecker(manager *Manager, fix bool) *IntegrityChecker {
	return &IntegrityChecker{manager: manager, fix: fix}
}

// Check runs all integrity checks and returns the combined report.
func (c *IntegrityChecker) Check(ctx context.Context) (*IntegrityReport, error) {
	ctx, span := tracing.StartSpan(ctx, "integrity.check")
	defer span.End()

	report := &IntegrityReport{}
	checks := []func(context.Context, *IntegrityReport) error{
		c.checkPathOverlap,
		c.checkOrphanGenres,
		c.checkDanglingLinks,
		c.checkUnlinkedGames,
	}
	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := check(ctx, report); err != nil {
			tracing.RecordError(span, err)
			return report, err
		}
	}

	if !report.OK() {
		logging.Warn("integrity check found issues", "count", len(report.Issues), "fixed", report.Fixed)
	}
	return report, nil
}

// checkPathOverlap finds paths present in more than one of the games,
// libraries and excluded_paths tables. Overlaps have no safe automatic
// fix; they need a human decision.
func (c *IntegrityChecker) checkPathOverlap(ctx context.Context, report *IntegrityReport) error {
	rows, err := c.manager.db.QueryContext(ctx, `
		SELECT path, COUNT(*) FROM (
			SELECT path FROM games
			UNION ALL SELECT path FROM libraries
			UNION ALL SELECT path FROM excluded_paths
		) GROUP BY path HAVING COUNT(*) > 1
	`)
	if err != nil {
		return WrapDBError(err, "check path overlap")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var path string
		var count int
		if err := rows.Scan(&path, &count); err != nil {
			return WrapDBError(err, "check path overlap")
		}
		report.Issues = append(report.Issues, Issue{
			Check:  "path-overlap",
			Detail: fmt.Sprintf("path '%s' has %d roles", path, count),
		})
	}
	return rows.Err()
}

func (c *IntegrityChecker) checkOrphanGenres(ctx context.Context, report *IntegrityReport) error {
	rows, err := c.manager.db.QueryContext(ctx, `
		SELECT name FROM genres WHERE id NOT IN (SELECT DISTINCT genre_id FROM game_genres)
	`)
	if err != nil {
		return WrapDBError(err, "check orphan genres")
	}

	var orphans []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return WrapDBError(err, "check orphan genres")
		}
		orphans = append(orphans, name)
	}
	_ = rows.Close()

	for _, name := range orphans {
		report.Issues = append(report.Issues, Issue{
			Check:   "orphan-genre",
			Detail:  fmt.Sprintf("genre '%s' has no games", name),
			Fixable: true,
		})
	}
	if c.fix && len(orphans) > 0 {
		n, err := c.manager.DeleteOrphanGenres(ctx)
		if err != nil {
			return err
		}
		report.Fixed += n
	}
	return nil
}

// checkDanglingLinks finds link rows pointing at rows that no longer
// exist. Foreign keys make these impossible through the manager; they
// indicate out-of-band edits or a database opened without foreign key
// enforcement.
func (c *IntegrityChecker) checkDanglingLinks(ctx context.Context, report *IntegrityReport) error {
	queries := map[string]string{
		"game_genres": `
			SELECT COUNT(*) FROM game_genres gg
			LEFT JOIN games g ON g.id = gg.game_id
			LEFT JOIN genres gn ON gn.id = gg.genre_id
			WHERE g.id IS NULL OR gn.id IS NULL`,
		"game_libraries": `
			SELECT COUNT(*) FROM game_libraries gl
			LEFT JOIN games g ON g.id = gl.game_id
			LEFT JOIN libraries l ON l.id = gl.library_id
			WHERE g.id IS NULL OR l.id IS NULL`,
		"game_urls": `
			SELECT COUNT(*) FROM game_urls gu
			LEFT JOIN games g ON g.id = gu.game_id
			WHERE g.id IS NULL`,
	}

	deletes := map[string]string{
		"game_genres":    "DELETE FROM game_genres WHERE game_id NOT IN (SELECT id FROM games) OR genre_id NOT IN (SELECT id FROM genres)",
		"game_libraries": "DELETE FROM game_libraries WHERE game_id NOT IN (SELECT id FROM games) OR library_id NOT IN (SELECT id FROM libraries)",
		"game_urls":      "DELETE FROM game_urls WHERE game_id NOT IN (SELECT id FROM games)",
	}

	for _, table := range []string{"game_genres", "game_libraries", "game_urls"} {
		var count int
		if err := c.manager.db.QueryRowContext(ctx, queries[table]).Scan(&count); err != nil {
			return WrapDBError(err, "check dangling links")
		}
		if count == 0 {
			continue
		}
		report.Issues = append(report.Issues, Issue{
			Check:   "dangling-link",
			Detail:  fmt.Sprintf("%d dangling rows in %s", count, table),
			Fixable: true,
		})
		if c.fix {
			if _, err := c.manager.db.ExecContext(ctx, deletes[table]); err != nil {
				return WrapDBError(err, "fix dangling links")
			}
			report.Fixed += count
		}
	}
	return nil
}

// checkUnlinkedGames finds games with no library membership. These are
// unreachable by any refresh and are deleted when fixing.
func (c *IntegrityChecker) checkUnlinkedGames(ctx context.Context, report *IntegrityReport) error {
	rows, err := c.manager.db.QueryContext(ctx, `
		SELECT id, path FROM games WHERE id NOT IN (SELECT DISTINCT game_id FROM game_libraries)
	`)
	if err != nil {
		return WrapDBError(err, "check unlinked games")
	}

	type unlinked struct {
		id   int64
		path string
	}
	var games []unlinked
	for rows.Next() {
		var g unlinked
		if err := rows.Scan(&g.id, &g.path); err != nil {
			_ = rows.Close()
			return WrapDBError(err, "check unlinked games")
		}
		games = append(games, g)
	}
	_ = rows.Close()

	for _, g := range games {
		report.Issues = append(report.Issues, Issue{
			Check:   "unlinked-game",
			Detail:  fmt.Sprintf("game '%s' belongs to no library", g.path),
			Fixable: true,
		})
		if c.fix {
			if err := c.manager.DeleteGame(ctx, g.id); err != nil {
				return err
			}
			report.Fixed++
		}
	}
	return nil
}
