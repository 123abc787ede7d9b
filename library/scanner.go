package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ykrasik/gamedex/logging"
	"github.com/ykrasik/gamedex/metrics"
	"github.com/ykrasik/gamedex/task"
	"github.com/ykrasik/gamedex/tracing"
)

// LibraryPrompt decides whether a directory that looks like a container
// (only subdirectories, no files) should become a sub-library.
type LibraryPrompt interface {
	ConfirmNewLibrary(ctx context.Context, path, platform string) (bool, error)
}

// RefreshResult tallies what a refresh did.
type RefreshResult struct {
	Processed int
	Added     int
	Skipped   int
	Excluded  int
	Failed    int
}

func (r *RefreshResult) merge(o *RefreshResult) {
	r.Processed += o.Processed
	r.Added += o.Added
	r.Skipped += o.Skipped
	r.Excluded += o.Excluded
	r.Failed += o.Failed
}

// Scanner walks library directories and feeds unmapped child directories
// through the resolution flow. It runs strictly serially: one path is
// fully resolved (including any user interaction) before the next is
// considered.
type Scanner struct {
	manager  *Manager
	flow     *Flow
	prompt   LibraryPrompt
	sink     task.Sink
	autoSkip bool
}

// NewScanner creates a scanner. A nil prompt (or autoSkip) means
// container directories are never promoted to sub-libraries and are
// offered as game candidates instead.
func NewScanner(manager *Manager, flow *Flow, prompt LibraryPrompt, sink task.Sink, autoSkip bool) *Scanner {
	if sink == nil {
		sink = task.NopSink{}
	}
	return &Scanner{
		manager:  manager,
		flow:     flow,
		prompt:   prompt,
		sink:     sink,
		autoSkip: autoSkip,
	}
}

// RefreshAll refreshes every registered library in path order.
func (s *Scanner) RefreshAll(ctx context.Context) (*RefreshResult, error) {
	libraries, err := s.manager.ListLibraries(ctx)
	if err != nil {
		return nil, err
	}

	result := &RefreshResult{}
	for _, lib := range libraries {
		r, err := s.Refresh(ctx, lib)
		if r != nil {
			result.merge(r)
		}
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// Refresh scans one library. Every immediate child directory is
// classified; unmapped ones go through resolution. A failure on one path
// never aborts the scan, but cancellation does: counts up to that point
// are returned alongside the context error.
func (s *Scanner) Refresh(ctx context.Context, lib *Library) (*RefreshResult, error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "scanner.refresh",
		tracing.WithAttributes(attribute.String("library.path", lib.Path)))
	defer span.End()
	defer metrics.RecordRefreshDuration(lib.Name, start)

	logging.Info("refreshing library", "path", lib.Path, "platform", lib.Platform)
	s.sink.Message(fmt.Sprintf("refreshing %s", lib.Path))

	result := &RefreshResult{}
	err := s.refreshDir(ctx, lib, result)
	if err != nil {
		tracing.RecordError(span, err)
		if errors.Is(err, context.Canceled) {
			s.sink.Progress(0, 0)
			s.sink.Message("cancelled")
		}
		return result, err
	}

	tracing.AddSpanAttributes(span,
		attribute.Int("paths.processed", result.Processed),
		attribute.Int("games.added", result.Added),
	)
	s.sink.Message(fmt.Sprintf("refreshed %s: %d added, %d skipped", lib.Path, result.Added, result.Skipped))
	return result, nil
}

func (s *Scanner) refreshDir(ctx context.Context, lib *Library, result *RefreshResult) error {
	entries, err := os.ReadDir(lib.Path)
	if err != nil {
		return &CatalogError{Op: "read library", Subject: lib.Path, Err: err}
	}

	var dirs []os.DirEntry
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry)
		}
	}

	total := len(dirs)
	for i, entry := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(lib.Path, entry.Name())
		if err := s.processPath(ctx, lib, path, entry.Name(), result); err != nil {
			return err
		}
		s.sink.Progress(i+1, total)
	}
	return nil
}

// processPath classifies one child directory. Classification order is
// fixed: known library, excluded, known game, container, game candidate.
func (s *Scanner) processPath(ctx context.Context, lib *Library, path, dirName string, result *RefreshResult) error {
	result.Processed++
	log := logging.WithComponent("scanner")

	if isLib, err := s.manager.IsLibraryPath(ctx, path); err != nil {
		return err
	} else if isLib {
		// Registered sub-libraries get their own refresh.
		return nil
	}
	if isExcl, err := s.manager.IsExcludedPath(ctx, path); err != nil {
		return err
	} else if isExcl {
		return nil
	}
	if isGame, err := s.manager.IsGamePath(ctx, path); err != nil {
		return err
	} else if isGame {
		return nil
	}

	if container, err := isContainerDir(path); err != nil {
		log.Warn("failed to inspect path", "path", path, "error", err)
		result.Failed++
		metrics.PathsProcessed.WithLabelValues(lib.Name, "failed").Inc()
		return nil
	} else if container && s.prompt != nil && !s.autoSkip {
		accepted, err := s.prompt.ConfirmNewLibrary(ctx, path, lib.Platform)
		if err != nil {
			return err
		}
		if accepted {
			sub, err := s.manager.AddLibrary(ctx, path, lib.Platform, dirName)
			if err != nil {
				return err
			}
			// Scan the new sub-library depth-first before moving on.
			subResult := &RefreshResult{}
			err = s.refreshDir(ctx, sub, subResult)
			result.merge(subResult)
			return err
		}
		// Declined containers fall through as game candidates.
	}

	return s.resolveGame(ctx, lib, path, dirName, result)
}

func (s *Scanner) resolveGame(ctx context.Context, lib *Library, path, dirName string, result *RefreshResult) error {
	log := logging.WithComponent("scanner")
	name := NormalizeSearchName(dirName)

	record, err := s.flow.Resolve(ctx, path, name, lib.Platform)
	switch {
	case err == nil:
		if _, err := s.manager.AddGame(ctx, record, path, lib.Platform, []int64{lib.ID}); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			log.Warn("failed to add game", "path", path, "error", err)
			result.Failed++
			metrics.PathsProcessed.WithLabelValues(lib.Name, "failed").Inc()
			return nil
		}
		log.Info("added game", "path", path, "name", record.Name)
		result.Added++
		metrics.PathsProcessed.WithLabelValues(lib.Name, "added").Inc()

	case errors.Is(err, ErrPathSkipped):
		log.Debug("skipped path", "path", path)
		result.Skipped++
		metrics.PathsProcessed.WithLabelValues(lib.Name, "skipped").Inc()

	case errors.Is(err, ErrPathExcluded):
		log.Info("excluded path", "path", path)
		result.Excluded++
		metrics.PathsProcessed.WithLabelValues(lib.Name, "excluded").Inc()

	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return err

	default:
		// One bad path never aborts the scan.
		log.Warn("failed to resolve path", "path", path, "error", err)
		result.Failed++
		metrics.PathsProcessed.WithLabelValues(lib.Name, "failed").Inc()
	}
	return nil
}

// isContainerDir reports whether a directory holds only subdirectories.
// Such directories usually group games rather than contain one.
func isContainerDir(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	if len(entries) == 0 {
		return false, nil
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			return false, nil
		}
	}
	return true, nil
}
