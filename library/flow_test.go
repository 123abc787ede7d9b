package library

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykrasik/gamedex/metadata"
)

// fakeProvider serves canned search results keyed by query.
type fakeProvider struct {
	name      string
	required  bool
	results   map[string][]metadata.SearchResult
	records   map[string]*metadata.GameRecord // keyed by handle
	searchErr error
	searches  []string
}

func (p *fakeProvider) Name() string   { return p.name }
func (p *fakeProvider) Required() bool { return p.required }

func (p *fakeProvider) Search(_ context.Context, query, _ string) ([]metadata.SearchResult, error) {
	p.searches = append(p.searches, query)
	if p.searchErr != nil {
		return nil, p.searchErr
	}
	return p.results[query], nil
}

func (p *fakeProvider) FetchDetails(_ context.Context, sel metadata.SearchResult) (*metadata.GameRecord, error) {
	return p.records[sel.Handle], nil
}

// scriptedResolver replays a fixed sequence of decisions and records the
// result sets it was shown.
type scriptedResolver struct {
	decisions []metadata.Decision
	shown     [][]metadata.SearchResult
}

func (r *scriptedResolver) next() metadata.Decision {
	d := r.decisions[0]
	r.decisions = r.decisions[1:]
	return d
}

func (r *scriptedResolver) OnNoResults(context.Context, metadata.Request) (metadata.Decision, error) {
	r.shown = append(r.shown, nil)
	return r.next(), nil
}

func (r *scriptedResolver) OnMultipleResults(_ context.Context, _ metadata.Request, results []metadata.SearchResult) (metadata.Decision, error) {
	r.shown = append(r.shown, results)
	return r.next(), nil
}

func newTestFlow(t *testing.T, providers []metadata.Provider, resolver metadata.Resolver) (*Flow, *Manager) {
	t.Helper()
	m := NewManager(setupTestDB(t))
	f, err := NewFlow(m, providers, resolver, nil)
	require.NoError(t, err)
	return f, m
}

func TestNewFlow_RequiresExactlyOneRequiredProvider(t *testing.T) {
	m := NewManager(setupTestDB(t))

	_, err := NewFlow(m, []metadata.Provider{&fakeProvider{name: "a"}}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidArg)

	_, err = NewFlow(m, []metadata.Provider{
		&fakeProvider{name: "a", required: true},
		&fakeProvider{name: "b", required: true},
	}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidArg)

	_, err = NewFlow(m, nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidArg)
}

func TestNewFlow_RequiredProviderRunsFirst(t *testing.T) {
	supp := &fakeProvider{name: "supp", results: map[string][]metadata.SearchResult{}}
	auth := &fakeProvider{
		name:     "auth",
		required: true,
		results: map[string][]metadata.SearchResult{
			"Doom": {{Name: "Doom", Handle: "d1"}},
		},
		records: map[string]*metadata.GameRecord{
			"d1": {Name: "Doom"},
		},
	}

	// Supplementary listed first; the flow reorders.
	f, _ := newTestFlow(t, []metadata.Provider{supp, auth}, &scriptedResolver{
		decisions: []metadata.Decision{metadata.Proceed()},
	})

	rec, err := f.Resolve(context.Background(), "/g/Doom", "Doom", "pc")
	require.NoError(t, err)
	assert.Equal(t, "Doom", rec.Name)
	require.NotEmpty(t, auth.searches)
	// Supplementary search is seeded with the settled name.
	assert.Equal(t, []string{"Doom"}, supp.searches)
}

func TestFlow_SingleResultAutoChosen(t *testing.T) {
	auth := &fakeProvider{
		name:     "auth",
		required: true,
		results: map[string][]metadata.SearchResult{
			"Doom": {{Name: "Doom", Handle: "d1"}},
		},
		records: map[string]*metadata.GameRecord{
			"d1": {Name: "Doom", Genres: []string{"FPS"}},
		},
	}
	resolver := &scriptedResolver{}
	f, _ := newTestFlow(t, []metadata.Provider{auth}, resolver)

	rec, err := f.Resolve(context.Background(), "/g/Doom", "Doom", "pc")
	require.NoError(t, err)
	assert.Equal(t, []string{"FPS"}, rec.Genres)
	assert.Empty(t, resolver.shown, "resolver is never consulted for an unambiguous match")
}

func TestFlow_SkipOnAuthoritative(t *testing.T) {
	auth := &fakeProvider{name: "auth", required: true, results: map[string][]metadata.SearchResult{}}
	f, _ := newTestFlow(t, []metadata.Provider{auth}, &scriptedResolver{
		decisions: []metadata.Decision{metadata.Skip()},
	})

	_, err := f.Resolve(context.Background(), "/g/Unknown", "Unknown", "pc")
	assert.ErrorIs(t, err, ErrPathSkipped)
}

func TestFlow_SkipOnSupplementaryKeepsRecord(t *testing.T) {
	auth := &fakeProvider{
		name:     "auth",
		required: true,
		results:  map[string][]metadata.SearchResult{"Doom": {{Name: "Doom", Handle: "d1"}}},
		records:  map[string]*metadata.GameRecord{"d1": {Name: "Doom"}},
	}
	supp := &fakeProvider{name: "supp", results: map[string][]metadata.SearchResult{}}
	f, _ := newTestFlow(t, []metadata.Provider{auth, supp}, &scriptedResolver{
		decisions: []metadata.Decision{metadata.Skip()}, // supp's OnNoResults
	})

	rec, err := f.Resolve(context.Background(), "/g/Doom", "Doom", "pc")
	require.NoError(t, err)
	assert.Equal(t, "Doom", rec.Name)
}

func TestFlow_ExcludePersistsPath(t *testing.T) {
	auth := &fakeProvider{name: "auth", required: true, results: map[string][]metadata.SearchResult{}}
	f, m := newTestFlow(t, []metadata.Provider{auth}, &scriptedResolver{
		decisions: []metadata.Decision{metadata.Exclude()},
	})

	_, err := f.Resolve(context.Background(), "/g/Redist", "Redist", "pc")
	assert.ErrorIs(t, err, ErrPathExcluded)

	excluded, err := m.IsExcludedPath(context.Background(), "/g/Redist")
	require.NoError(t, err)
	assert.True(t, excluded)
}

func TestFlow_NewNameResearches(t *testing.T) {
	auth := &fakeProvider{
		name:     "auth",
		required: true,
		results: map[string][]metadata.SearchResult{
			"Fo Bar":  {},
			"Foo Bar": {{Name: "Foo Bar", Handle: "f1"}},
		},
		records: map[string]*metadata.GameRecord{"f1": {Name: "Foo Bar"}},
	}
	f, _ := newTestFlow(t, []metadata.Provider{auth}, &scriptedResolver{
		decisions: []metadata.Decision{metadata.NewName("Foo Bar")},
	})

	rec, err := f.Resolve(context.Background(), "/g/Fo Bar", "Fo Bar", "pc")
	require.NoError(t, err)
	assert.Equal(t, "Foo Bar", rec.Name)
	assert.Equal(t, []string{"Fo Bar", "Foo Bar"}, auth.searches)
}

func TestFlow_RejectedNamesCarryAcrossProviders(t *testing.T) {
	results := []metadata.SearchResult{
		{Name: "Doom", Handle: "d1"},
		{Name: "Doom II", Handle: "d2"},
		{Name: "Doom 3", Handle: "d3"},
	}
	auth := &fakeProvider{
		name:     "auth",
		required: true,
		results:  map[string][]metadata.SearchResult{"Doom": results},
		records:  map[string]*metadata.GameRecord{"d1": {Name: "Doom"}},
	}
	supp := &fakeProvider{
		name:    "supp",
		results: map[string][]metadata.SearchResult{"Doom": results},
		records: map[string]*metadata.GameRecord{"d1": {Name: "Doom", Genres: []string{"FPS"}}},
	}
	resolver := &scriptedResolver{
		decisions: []metadata.Decision{metadata.Choose(results[0])},
	}
	f, _ := newTestFlow(t, []metadata.Provider{auth, supp}, resolver)

	rec, err := f.Resolve(context.Background(), "/g/Doom", "Doom", "pc")
	require.NoError(t, err)
	assert.Equal(t, []string{"FPS"}, rec.Genres)

	// The authoritative pick implicitly rejected "Doom II" and "Doom 3";
	// when supp returns the same trio, filtering leaves only "Doom" and
	// it is chosen without asking again.
	require.Len(t, resolver.shown, 1)
	assert.Len(t, resolver.shown[0], 3)
}

func TestFlow_SupplementaryFailureKeepsRecord(t *testing.T) {
	auth := &fakeProvider{
		name:     "auth",
		required: true,
		results:  map[string][]metadata.SearchResult{"Doom": {{Name: "Doom", Handle: "d1"}}},
		records:  map[string]*metadata.GameRecord{"d1": {Name: "Doom"}},
	}
	supp := &fakeProvider{name: "supp", searchErr: errors.New("upstream down")}
	f, _ := newTestFlow(t, []metadata.Provider{auth, supp}, metadata.AutoSkipResolver{})

	rec, err := f.Resolve(context.Background(), "/g/Doom", "Doom", "pc")
	require.NoError(t, err, "a supplementary outage costs its fields, not the path")
	assert.Equal(t, "Doom", rec.Name)
}

func TestFlow_AuthoritativeFailureIsFatal(t *testing.T) {
	auth := &fakeProvider{name: "auth", required: true, searchErr: errors.New("upstream down")}
	f, _ := newTestFlow(t, []metadata.Provider{auth}, metadata.AutoSkipResolver{})

	_, err := f.Resolve(context.Background(), "/g/Doom", "Doom", "pc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPathSkipped)
}

func TestFlow_ProceedOnRequiredIsInvalid(t *testing.T) {
	auth := &fakeProvider{name: "auth", required: true, results: map[string][]metadata.SearchResult{}}
	f, _ := newTestFlow(t, []metadata.Provider{auth}, &scriptedResolver{
		decisions: []metadata.Decision{metadata.Proceed()},
	})

	_, err := f.Resolve(context.Background(), "/g/X", "X", "pc")
	assert.ErrorIs(t, err, ErrInvalidArg)
}

func TestFlow_EmptyNameSkips(t *testing.T) {
	auth := &fakeProvider{name: "auth", required: true}
	f, _ := newTestFlow(t, []metadata.Provider{auth}, metadata.AutoSkipResolver{})

	_, err := f.Resolve(context.Background(), "/g/[junk]", "", "pc")
	assert.ErrorIs(t, err, ErrPathSkipped)
	assert.Empty(t, auth.searches)
}

func TestFlow_Cancellation(t *testing.T) {
	auth := &fakeProvider{name: "auth", required: true}
	f, _ := newTestFlow(t, []metadata.Provider{auth}, metadata.AutoSkipResolver{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Resolve(ctx, "/g/X", "X", "pc")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFlow_MergesSupplementaryData(t *testing.T) {
	auth := &fakeProvider{
		name:     "auth",
		required: true,
		results:  map[string][]metadata.SearchResult{"Doom": {{Name: "Doom", Handle: "d1"}}},
		records: map[string]*metadata.GameRecord{
			"d1": {Name: "Doom", Genres: []string{"FPS"}, DetailURLs: map[string]string{"auth": "https://auth/doom"}},
		},
	}
	score := 88.0
	supp := &fakeProvider{
		name:    "supp",
		results: map[string][]metadata.SearchResult{"Doom": {{Name: "Doom", Handle: "s1"}}},
		records: map[string]*metadata.GameRecord{
			"s1": {Name: "DOOM (1993)", Description: "Rip and tear", CriticScore: &score, Genres: []string{"Shooter"}, DetailURLs: map[string]string{"supp": "https://supp/doom"}},
		},
	}
	f, _ := newTestFlow(t, []metadata.Provider{auth, supp}, metadata.AutoSkipResolver{})

	rec, err := f.Resolve(context.Background(), "/g/Doom", "Doom", "pc")
	require.NoError(t, err)
	assert.Equal(t, "Doom", rec.Name, "authoritative name wins")
	assert.Equal(t, "Rip and tear", rec.Description)
	assert.Equal(t, []string{"FPS", "Shooter"}, rec.Genres)
	require.NotNil(t, rec.CriticScore)
	assert.Equal(t, 88.0, *rec.CriticScore)
	assert.Equal(t, "https://auth/doom", rec.DetailURLs["auth"])
	assert.Equal(t, "https://supp/doom", rec.DetailURLs["supp"])
}
