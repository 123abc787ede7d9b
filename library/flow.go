package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/ykrasik/gamedex/logging"
	"github.com/ykrasik/gamedex/metadata"
	"github.com/ykrasik/gamedex/metrics"
	"github.com/ykrasik/gamedex/task"
)

// errProviderSkipped ends resolution against one provider only. For the
// authoritative provider it escalates to ErrPathSkipped; for a
// supplementary provider the flow simply moves on.
var errProviderSkipped = errors.New("provider skipped")

// Flow resolves one path into a merged metadata record by running every
// provider in turn: the authoritative provider first, then the
// supplementary ones seeded with the name it settled on. Rejected
// candidate names are remembered across providers and re-searches for
// the lifetime of a single path, so the user is never asked about the
// same wrong candidate twice.
type Flow struct {
	manager   *Manager
	providers []metadata.Provider
	resolver  metadata.Resolver
	sink      task.Sink
}

// NewFlow creates a resolution flow. Exactly one provider must be
// required; it is moved to the front of the provider order.
func NewFlow(manager *Manager, providers []metadata.Provider, resolver metadata.Resolver, sink task.Sink) (*Flow, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: no metadata providers", ErrInvalidArg)
	}
	if resolver == nil {
		resolver = metadata.AutoSkipResolver{}
	}
	if sink == nil {
		sink = task.NopSink{}
	}

	ordered := make([]metadata.Provider, 0, len(providers))
	required := 0
	for _, p := range providers {
		if p.Required() {
			required++
			ordered = append([]metadata.Provider{p}, ordered...)
		} else {
			ordered = append(ordered, p)
		}
	}
	if required != 1 {
		return nil, fmt.Errorf("%w: exactly one required provider expected, got %d", ErrInvalidArg, required)
	}

	return &Flow{
		manager:   manager,
		providers: ordered,
		resolver:  resolver,
		sink:      sink,
	}, nil
}

// Resolve turns a directory into a merged metadata record. It returns
// ErrPathSkipped when the path was abandoned without a match, and
// ErrPathExcluded when the user excluded the path (already persisted by
// the time the error is returned).
func (f *Flow) Resolve(ctx context.Context, path, name, platform string) (*metadata.GameRecord, error) {
	log := logging.WithComponent("resolver")
	searchCtx := metadata.NewSearchContext()

	authoritative := f.providers[0]
	record, err := f.resolveProvider(ctx, searchCtx, authoritative, path, name, platform)
	if errors.Is(err, errProviderSkipped) {
		return nil, &CatalogError{Op: "resolve", Subject: path, Err: ErrPathSkipped}
	}
	if err != nil {
		return nil, err
	}
	if record == nil {
		// Proceed without the authoritative provider is not a thing.
		return nil, &CatalogError{Op: "resolve", Subject: path, Err: fmt.Errorf("%w: no data from required provider %s", ErrInvalidArg, authoritative.Name())}
	}

	// The settled name seeds the remaining searches.
	for _, provider := range f.providers[1:] {
		supp, err := f.resolveProvider(ctx, searchCtx, provider, path, record.Name, platform)
		switch {
		case err == nil:
			record = metadata.MergeRecords(record, supp)
		case errors.Is(err, errProviderSkipped):
			log.Debug("supplementary provider skipped", "provider", provider.Name(), "path", path)
		case errors.Is(err, ErrPathExcluded), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			// Supplementary providers are individually optional; a failure
			// here costs their fields, not the path.
			log.Warn("supplementary provider failed", "provider", provider.Name(), "path", path, "error", err)
		}
	}

	return record, nil
}

// resolveProvider runs the search/disambiguate loop against one provider
// until a result is fetched, the provider is skipped, the path is
// excluded, or the flow proceeds without data (nil, nil).
func (f *Flow) resolveProvider(ctx context.Context, searchCtx *metadata.SearchContext, provider metadata.Provider, path, name, platform string) (*metadata.GameRecord, error) {
	for {
		if name == "" {
			return nil, errProviderSkipped
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f.sink.Indeterminate()
		f.sink.Message(fmt.Sprintf("searching %s for '%s'", provider.Name(), name))
		results, err := provider.Search(ctx, name, platform)
		metrics.ProviderSearches.WithLabelValues(provider.Name()).Inc()
		if err != nil {
			return nil, &CatalogError{Op: "search", Subject: path, Err: fmt.Errorf("%s: %w", provider.Name(), err)}
		}

		req := metadata.Request{
			Path:              path,
			Name:              name,
			Platform:          platform,
			Provider:          provider.Name(),
			CanProceedWithout: !provider.Required(),
		}

		var decision metadata.Decision
		var shown []metadata.SearchResult
		switch len(results) {
		case 0:
			decision, err = f.resolver.OnNoResults(ctx, req)
			if err != nil {
				return nil, err
			}
		case 1:
			// An unambiguous match needs no confirmation.
			decision = metadata.Choose(results[0])
		default:
			shown = searchCtx.Filter(results)
			if len(shown) == 1 {
				// Every alternative was already rejected for this path.
				decision = metadata.Choose(shown[0])
				shown = nil
				break
			}
			decision, err = f.resolver.OnMultipleResults(ctx, req, shown)
			if err != nil {
				return nil, err
			}
		}

		switch decision.Kind {
		case metadata.DecisionSkip:
			return nil, errProviderSkipped

		case metadata.DecisionNewName:
			// Everything shown was implicitly rejected.
			for _, r := range shown {
				searchCtx.Exclude(r.Name)
			}
			name = decision.Name
			continue

		case metadata.DecisionExclude:
			if _, err := f.manager.AddExcludedPath(ctx, path); err != nil {
				return nil, err
			}
			return nil, &CatalogError{Op: "resolve", Subject: path, Err: ErrPathExcluded}

		case metadata.DecisionProceed:
			if provider.Required() {
				return nil, &CatalogError{Op: "resolve", Subject: path, Err: fmt.Errorf("%w: cannot proceed without required provider %s", ErrInvalidArg, provider.Name())}
			}
			return nil, nil

		case metadata.DecisionChoose:
			if decision.Result == nil {
				return nil, &CatalogError{Op: "resolve", Subject: path, Err: fmt.Errorf("%w: choose decision without a result", ErrInvalidArg)}
			}
			// Remember the candidates passed over.
			for _, r := range shown {
				if r.Name != decision.Result.Name {
					searchCtx.Exclude(r.Name)
				}
			}
			return f.fetch(ctx, provider, path, *decision.Result)

		default:
			return nil, &CatalogError{Op: "resolve", Subject: path, Err: fmt.Errorf("%w: unknown decision %d", ErrInvalidArg, decision.Kind)}
		}
	}
}

func (f *Flow) fetch(ctx context.Context, provider metadata.Provider, path string, sel metadata.SearchResult) (*metadata.GameRecord, error) {
	f.sink.Indeterminate()
	f.sink.Message(fmt.Sprintf("fetching '%s' from %s", sel.Name, provider.Name()))

	record, err := provider.FetchDetails(ctx, sel)
	if err != nil {
		return nil, &CatalogError{Op: "fetch details", Subject: path, Err: fmt.Errorf("%s: %w", provider.Name(), err)}
	}
	if record == nil {
		// The provider offered this result moments ago and now denies it.
		return nil, &CatalogError{Op: "fetch details", Subject: path, Err: fmt.Errorf("%s no longer knows '%s'", provider.Name(), sel.Name)}
	}
	return record, nil
}
