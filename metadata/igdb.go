package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Henry-Sarabia/igdb/v2"

	"github.com/ykrasik/gamedex/logging"
)

// IGDBProvider implements the Provider interface for IGDB.
type IGDBProvider struct {
	client   *igdb.Client
	required bool
}

// NewIGDBProvider creates a new IGDB provider.
// It automatically fetches an access token using the provided Client ID and Secret.
func NewIGDBProvider(clientID, clientSecret string, required bool) (*IGDBProvider, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("IGDB Client ID and Secret are required")
	}

	token, err := getTwitchToken(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with Twitch: %w", err)
	}

	client := igdb.NewClient(clientID, token, nil)
	return &IGDBProvider{client: client, required: required}, nil
}

func (p *IGDBProvider) Name() string {
	return "igdb"
}

func (p *IGDBProvider) Required() bool {
	return p.required
}

// Search finds games matching the query. IGDB's search endpoint is
// cross-platform; the platform tag only informs the caller's choice.
func (p *IGDBProvider) Search(ctx context.Context, query, platform string) ([]SearchResult, error) {
	logging.Debug("searching igdb", "query", query, "platform", platform)

	games, err := p.client.Games.Search(
		query,
		igdb.SetFields("id", "name", "first_release_date", "total_rating"),
		igdb.SetLimit(10),
	)
	if err != nil {
		if isNoResults(err) {
			return nil, nil
		}
		return nil, err
	}

	results := make([]SearchResult, 0, len(games))
	for _, g := range games {
		r := SearchResult{
			Name:   g.Name,
			Score:  g.TotalRating,
			Handle: fmt.Sprintf("igdb:%d", g.ID),
		}
		if g.FirstReleaseDate != 0 {
			r.ReleaseDate = time.Unix(int64(g.FirstReleaseDate), 0).Format("2006-01-02")
		}
		results = append(results, r)
	}
	return results, nil
}

// FetchDetails fetches detailed metadata for a search result.
func (p *IGDBProvider) FetchDetails(ctx context.Context, sel SearchResult) (*GameRecord, error) {
	// Parse handle (format: "igdb:12345")
	parts := strings.Split(sel.Handle, ":")
	if len(parts) != 2 || parts[0] != "igdb" {
		return nil, fmt.Errorf("invalid IGDB handle: %s", sel.Handle)
	}

	var numericID int
	if _, err := fmt.Sscanf(parts[1], "%d", &numericID); err != nil {
		return nil, fmt.Errorf("invalid numeric ID: %s", parts[1])
	}

	game, err := p.client.Games.Get(
		numericID,
		igdb.SetFields("id", "name", "summary", "first_release_date", "aggregated_rating", "rating", "genres", "url"),
	)
	if err != nil {
		if isNoResults(err) {
			return nil, nil
		}
		return nil, err
	}

	rec := &GameRecord{
		Name:        game.Name,
		Description: game.Summary,
		DetailURLs:  map[string]string{p.Name(): game.URL},
	}
	if game.FirstReleaseDate != 0 {
		rec.ReleaseDate = time.Unix(int64(game.FirstReleaseDate), 0).Format("2006-01-02")
	}
	if game.AggregatedRating > 0 {
		score := game.AggregatedRating
		rec.CriticScore = &score
	}
	if game.Rating > 0 {
		score := game.Rating
		rec.UserScore = &score
	}

	if len(game.Genres) > 0 {
		genres, err := p.client.Genres.List(game.Genres, igdb.SetFields("name"))
		if err != nil {
			// Genre names are an enrichment; the record is still usable.
			logging.Warn("failed to fetch igdb genres", "game", game.Name, "error", err)
		} else {
			for _, g := range genres {
				rec.Genres = append(rec.Genres, g.Name)
			}
		}
	}

	return rec, nil
}

// isNoResults reports whether the error is IGDB's empty-result sentinel.
func isNoResults(err error) bool {
	return err != nil && strings.Contains(err.Error(), "results are empty")
}

// getTwitchToken fetches an App Access Token from Twitch.
func getTwitchToken(clientID, clientSecret string) (string, error) {
	u := "https://id.twitch.tv/oauth2/token"
	vals := url.Values{}
	vals.Set("client_id", clientID)
	vals.Set("client_secret", clientSecret)
	vals.Set("grant_type", "client_credentials")

	resp, err := http.PostForm(u, vals)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.AccessToken, nil
}
