package library

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ykrasik/gamedex/logging"
	"github.com/ykrasik/gamedex/task"
	"github.com/ykrasik/gamedex/tracing"
)

// CleanupResult tallies what a cleanup pass removed.
type CleanupResult struct {
	GamesRemoved         int
	LibrariesRemoved     int
	ExcludedPathsRemoved int
	GenresRemoved        int
}

// CleanupObsolete removes catalog entries whose directories no longer
// exist on disk: stale games, stale libraries (cascading to games that
// belonged only to them), stale excluded paths, and any genres orphaned
// along the way.
func (m *Manager) CleanupObsolete(ctx context.Context, sink task.Sink) (*CleanupResult, error) {
	ctx, span := tracing.StartSpan(ctx, "manager.cleanup")
	defer span.End()

	if sink == nil {
		sink = task.NopSink{}
	}
	log := logging.Get()
	result := &CleanupResult{}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sink.Message("checking games")
	games, err := m.ListGames(ctx)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	for i, game := range games {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		sink.Progress(i+1, len(games))
		if dirExists(game.Path) {
			continue
		}
		if err := m.DeleteGame(ctx, game.ID); err != nil {
			tracing.RecordError(span, err)
			return result, err
		}
		log.Info("removed stale game", "path", game.Path, "name", game.Name)
		result.GamesRemoved++
	}

	sink.Message("checking libraries")
	libraries, err := m.ListLibraries(ctx)
	if err != nil {
		tracing.RecordError(span, err)
		return result, err
	}
	for i, lib := range libraries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		sink.Progress(i+1, len(libraries))
		if dirExists(lib.Path) {
			continue
		}
		// Games that lived only in this library go with it.
		orphaned, err := m.GamesOnlyInLibrary(ctx, lib.ID)
		if err != nil {
			tracing.RecordError(span, err)
			return result, err
		}
		for _, gameID := range orphaned {
			if err := m.DeleteGame(ctx, gameID); err != nil {
				tracing.RecordError(span, err)
				return result, err
			}
			result.GamesRemoved++
		}
		if err := m.DeleteLibrary(ctx, lib.ID); err != nil {
			tracing.RecordError(span, err)
			return result, err
		}
		log.Info("removed stale library", "path", lib.Path, "games", len(orphaned))
		result.LibrariesRemoved++
	}

	sink.Message("checking excluded paths")
	excluded, err := m.ListExcludedPaths(ctx)
	if err != nil {
		tracing.RecordError(span, err)
		return result, err
	}
	for i, p := range excluded {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		sink.Progress(i+1, len(excluded))
		if dirExists(p.Path) {
			continue
		}
		if err := m.DeleteExcludedPath(ctx, p.ID); err != nil {
			tracing.RecordError(span, err)
			return result, err
		}
		log.Info("removed stale excluded path", "path", p.Path)
		result.ExcludedPathsRemoved++
	}

	// Sweep genres left orphaned by out-of-band edits.
	genres, err := m.DeleteOrphanGenres(ctx)
	if err != nil {
		tracing.RecordError(span, err)
		return result, err
	}
	result.GenresRemoved = genres

	tracing.AddSpanAttributes(span,
		attribute.Int("games.removed", result.GamesRemoved),
		attribute.Int("libraries.removed", result.LibrariesRemoved),
	)
	sink.Message(fmt.Sprintf("cleanup complete: %d games, %d libraries, %d exclusions removed",
		result.GamesRemoved, result.LibrariesRemoved, result.ExcludedPathsRemoved))
	return result, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
