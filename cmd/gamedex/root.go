package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ykrasik/gamedex/db"
	"github.com/ykrasik/gamedex/library"
	"github.com/ykrasik/gamedex/metadata"
	"github.com/ykrasik/gamedex/task"
)

var (
	dbFlag       string
	jsonFlag     bool
	autoSkipFlag bool
)

var rootCmd = &cobra.Command{
	Use:           "gamedex",
	Short:         "Catalog game directories with provider metadata",
	Long:          "GameDex scans library directories, matches each game folder against metadata providers, and keeps the results in a local SQLite catalog.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Database path (default: config db_path or gamedex.db)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Output JSON")
	rootCmd.PersistentFlags().BoolVar(&autoSkipFlag, "auto-skip", false, "Never prompt; skip every ambiguous path")
}

func dbPath() string {
	if dbFlag != "" {
		return dbFlag
	}
	return cfg.GetDBPath()
}

func openDB() (*sql.DB, error) {
	return db.Open(dbPath())
}

func autoSkip() bool {
	return autoSkipFlag || cfg.AutoSkip
}

// buildProviders assembles the configured provider chain.
func buildProviders() ([]metadata.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var providers []metadata.Provider
	if igdbCfg := cfg.Providers.IGDB; igdbCfg.ClientID != "" && igdbCfg.ClientSecret != "" {
		p, err := metadata.NewIGDBProvider(igdbCfg.ClientID, igdbCfg.ClientSecret, igdbCfg.Required)
		if err != nil {
			return nil, fmt.Errorf("init igdb: %w", err)
		}
		providers = append(providers, p)
	}
	if gbCfg := cfg.Providers.GiantBomb; gbCfg.APIKey != "" {
		p, err := metadata.NewGiantBombProvider(gbCfg.APIKey, gbCfg.Required)
		if err != nil {
			return nil, fmt.Errorf("init giantbomb: %w", err)
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no metadata providers configured; set provider credentials in config or environment")
	}
	return providers, nil
}

func buildResolver() metadata.Resolver {
	if autoSkip() {
		return metadata.AutoSkipResolver{}
	}
	return &terminalResolver{in: os.Stdin, out: os.Stdout}
}

func buildScanner(database *sql.DB, sink task.Sink) (*library.Scanner, *library.Manager, error) {
	manager := library.NewManager(database)
	providers, err := buildProviders()
	if err != nil {
		return nil, nil, err
	}
	flow, err := library.NewFlow(manager, providers, buildResolver(), sink)
	if err != nil {
		return nil, nil, err
	}

	var prompt library.LibraryPrompt
	if !autoSkip() {
		prompt = &terminalPrompt{in: os.Stdin, out: os.Stdout}
	}
	return library.NewScanner(manager, flow, prompt, sink, autoSkip()), manager, nil
}

func exitErr(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
