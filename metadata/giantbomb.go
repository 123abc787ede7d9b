package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ykrasik/gamedex/logging"
)

const giantBombBaseURL = "https://www.giantbomb.com/api"

// GiantBombProvider implements the Provider interface for the GiantBomb API.
type GiantBombProvider struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	required bool
}

// NewGiantBombProvider creates a new GiantBomb provider.
func NewGiantBombProvider(apiKey string, required bool) (*GiantBombProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GiantBomb API key is required")
	}
	return &GiantBombProvider{
		apiKey:   apiKey,
		baseURL:  giantBombBaseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		required: required,
	}, nil
}

func (p *GiantBombProvider) Name() string {
	return "giantbomb"
}

func (p *GiantBombProvider) Required() bool {
	return p.required
}

type giantBombSearchResponse struct {
	Error   string `json:"error"`
	Results []struct {
		GUID                string `json:"guid"`
		Name                string `json:"name"`
		OriginalReleaseDate string `json:"original_release_date"`
	} `json:"results"`
}

// Search finds games matching the query. The GiantBomb search endpoint
// cannot filter by platform server-side; the platform tag only informs
// the caller's choice.
func (p *GiantBombProvider) Search(ctx context.Context, query, platform string) ([]SearchResult, error) {
	logging.Debug("searching giantbomb", "query", query, "platform", platform)

	vals := url.Values{}
	vals.Set("api_key", p.apiKey)
	vals.Set("format", "json")
	vals.Set("resources", "game")
	vals.Set("query", query)
	vals.Set("limit", "10")
	vals.Set("field_list", "guid,name,original_release_date")

	var resp giantBombSearchResponse
	if err := p.get(ctx, "/search/", vals, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "OK" {
		return nil, fmt.Errorf("giantbomb error: %s", resp.Error)
	}

	results := make([]SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, SearchResult{
			Name:        r.Name,
			ReleaseDate: r.OriginalReleaseDate,
			Handle:      r.GUID,
		})
	}
	return results, nil
}

type giantBombGameResponse struct {
	Error string `json:"error"`
	// On errors the API reports results as an empty array, so this is
	// decoded only after checking Error.
	Results json.RawMessage `json:"results"`
}

type giantBombGame struct {
	Name                string `json:"name"`
	Deck                string `json:"deck"`
	OriginalReleaseDate string `json:"original_release_date"`
	SiteDetailURL       string `json:"site_detail_url"`
	Genres              []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// FetchDetails fetches detailed metadata for a search result.
func (p *GiantBombProvider) FetchDetails(ctx context.Context, sel SearchResult) (*GameRecord, error) {
	vals := url.Values{}
	vals.Set("api_key", p.apiKey)
	vals.Set("format", "json")
	vals.Set("field_list", "name,deck,original_release_date,site_detail_url,genres")

	var resp giantBombGameResponse
	if err := p.get(ctx, "/game/"+sel.Handle+"/", vals, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "OK" {
		// "Object Not Found" means the listed result vanished upstream.
		return nil, nil
	}

	var game giantBombGame
	if err := json.Unmarshal(resp.Results, &game); err != nil {
		return nil, fmt.Errorf("giantbomb malformed game response: %w", err)
	}

	rec := &GameRecord{
		Name:        game.Name,
		Description: game.Deck,
		ReleaseDate: game.OriginalReleaseDate,
	}
	if game.SiteDetailURL != "" {
		rec.DetailURLs = map[string]string{p.Name(): game.SiteDetailURL}
	}
	for _, g := range game.Genres {
		rec.Genres = append(rec.Genres, g.Name)
	}
	return rec, nil
}

func (p *GiantBombProvider) get(ctx context.Context, path string, vals url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+vals.Encode(), nil)
	if err != nil {
		return err
	}
	// GiantBomb rejects requests without a user agent.
	req.Header.Set("User-Agent", "gamedex/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("giantbomb http error: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
