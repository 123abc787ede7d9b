package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ykrasik/gamedex/library"
	"github.com/ykrasik/gamedex/logging"
	"github.com/ykrasik/gamedex/metrics"
)

// server exposes a read-only JSON view of the catalog plus health and
// Prometheus metrics endpoints. Scanning stays in the CLI; the server
// never writes.
type server struct {
	db      *sql.DB
	manager *library.Manager
	mux     *http.ServeMux
}

func newServer(db *sql.DB) *server {
	s := &server{
		db:      db,
		manager: library.NewManager(db),
		mux:     http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *server) setupRoutes() {
	s.mux.HandleFunc("/api/games", s.handleGames)
	s.mux.HandleFunc("/api/libraries", s.handleLibraries)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/metrics", s.handleMetrics)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func (s *server) handleGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.manager.ListGames(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]map[string]interface{}, 0, len(games))
	for _, game := range games {
		items = append(items, map[string]interface{}{
			"id":          game.ID,
			"name":        game.Name,
			"platform":    game.Platform,
			"path":        game.Path,
			"releaseDate": game.ReleaseDate,
			"criticScore": game.CriticScore,
			"userScore":   game.UserScore,
			"genres":      strings.Join(game.Genres, ", "),
		})
	}
	writeJSON(w, map[string]interface{}{"games": items})
}

func (s *server) handleLibraries(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.QueryContext(r.Context(), `
		SELECT l.id, l.name, l.platform, l.path, COUNT(gl.game_id) as games
		FROM libraries l
		LEFT JOIN game_libraries gl ON gl.library_id = l.id
		GROUP BY l.id ORDER BY l.path
	`)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer func() { _ = rows.Close() }()

	var libs []map[string]interface{}
	for rows.Next() {
		var id int64
		var name, platform, path string
		var games int
		if err := rows.Scan(&id, &name, &platform, &path, &games); err != nil {
			continue
		}
		libs = append(libs, map[string]interface{}{
			"id":       id,
			"name":     name,
			"platform": platform,
			"path":     path,
			"games":    games,
		})
	}
	writeJSON(w, map[string]interface{}{"libraries": libs})
}

func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	var games, libraries, genres, excluded int

	_ = s.db.QueryRow("SELECT COUNT(*) FROM games").Scan(&games)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM libraries").Scan(&libraries)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM genres").Scan(&genres)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM excluded_paths").Scan(&excluded)

	writeJSON(w, map[string]int{
		"totalGames":     games,
		"totalLibraries": libraries,
		"totalGenres":    genres,
		"totalExcluded":  excluded,
	})
}

func (s *server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if err := metrics.UpdateDBMetrics(s.db); err != nil {
		logging.Error("failed to update metrics", "error", err)
	}
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	err := s.db.Ping()
	status := "healthy"
	statusCode := http.StatusOK

	if err != nil {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"db":     fmt.Sprintf("%v", err == nil),
	})
}
