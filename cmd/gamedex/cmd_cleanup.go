package main

import (
	"github.com/spf13/cobra"

	"github.com/ykrasik/gamedex/library"
)

func init() {
	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove catalog entries whose directories no longer exist",
		Run:   runCleanup,
	}
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, _ []string) {
	database, err := openDB()
	if err != nil {
		exitErr("open database", err)
	}
	defer func() { _ = database.Close() }()

	result, err := library.NewManager(database).CleanupObsolete(cmd.Context(), nil)
	if err != nil {
		exitErr("cleanup", err)
	}

	printResult(map[string]interface{}{
		"games_removed":          result.GamesRemoved,
		"libraries_removed":      result.LibrariesRemoved,
		"excluded_paths_removed": result.ExcludedPathsRemoved,
		"genres_removed":         result.GenresRemoved,
	})
}
