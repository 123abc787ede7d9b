package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Run:   runConfigShow,
	}
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(_ *cobra.Command, _ []string) {
	redact := func(s string) string {
		if s == "" {
			return "(unset)"
		}
		return "****"
	}

	data := map[string]interface{}{
		"db_path":   dbPath(),
		"auto_skip": autoSkip(),
		"logging": map[string]string{
			"format": cfg.Logging.Format,
			"level":  cfg.Logging.Level,
		},
		"providers": map[string]interface{}{
			"igdb": map[string]interface{}{
				"client_id":     redact(cfg.Providers.IGDB.ClientID),
				"client_secret": redact(cfg.Providers.IGDB.ClientSecret),
				"required":      cfg.Providers.IGDB.Required,
			},
			"giantbomb": map[string]interface{}{
				"api_key":  redact(cfg.Providers.GiantBomb.APIKey),
				"required": cfg.Providers.GiantBomb.Required,
			},
		},
	}

	if jsonFlag {
		printResult(data)
		return
	}

	fmt.Printf("Database:  %s\n", dbPath())
	fmt.Printf("Auto-skip: %v\n", autoSkip())
	fmt.Printf("Logging:   %s / %s\n", cfg.Logging.Format, cfg.Logging.Level)
	fmt.Printf("IGDB:      client_id=%s required=%v\n", redact(cfg.Providers.IGDB.ClientID), cfg.Providers.IGDB.Required)
	fmt.Printf("GiantBomb: api_key=%s required=%v\n", redact(cfg.Providers.GiantBomb.APIKey), cfg.Providers.GiantBomb.Required)
}
