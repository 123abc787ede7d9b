package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Gauges
	GamesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gamedex_games_total",
		Help: "Total number of games in the database.",
	})
	LibrariesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gamedex_libraries_total",
		Help: "Total number of configured libraries.",
	})
	GenresTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gamedex_genres_total",
		Help: "Total number of genres in the database.",
	})
	ExcludedPathsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gamedex_excluded_paths_total",
		Help: "Total number of excluded paths.",
	})

	// Refresh Performance
	RefreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gamedex_refresh_duration_seconds",
		Help:    "Duration of library refreshes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"library"})

	PathsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamedex_paths_processed_total",
		Help: "Total number of paths processed during refreshes.",
	}, []string{"library", "status"}) // status: added, skipped, excluded, failed

	ProviderSearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamedex_provider_searches_total",
		Help: "Total number of provider search calls.",
	}, []string{"provider"})
)

// UpdateDBMetrics refreshes gauges that reflect the current state of the database.
func UpdateDBMetrics(db *sql.DB) error {
	var games, libraries, genres, excluded int

	if err := db.QueryRow("SELECT COUNT(*) FROM games").Scan(&games); err != nil {
		return err
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM libraries").Scan(&libraries); err != nil {
		return err
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM genres").Scan(&genres); err != nil {
		return err
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM excluded_paths").Scan(&excluded); err != nil {
		return err
	}

	GamesTotal.Set(float64(games))
	LibrariesTotal.Set(float64(libraries))
	GenresTotal.Set(float64(genres))
	ExcludedPathsTotal.Set(float64(excluded))

	return nil
}

// RecordRefreshDuration records the time taken for a library refresh.
func RecordRefreshDuration(library string, start time.Time) {
	RefreshDuration.WithLabelValues(library).Observe(time.Since(start).Seconds())
}
