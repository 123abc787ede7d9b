package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ykrasik/gamedex/library"
)

func init() {
	gamesCmd := &cobra.Command{
		Use:   "games",
		Short: "Browse and manage cataloged games",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cataloged games",
		Run:   runGamesList,
	}

	infoCmd := &cobra.Command{
		Use:   "info <id>",
		Short: "Show full details for one game",
		Args:  cobra.ExactArgs(1),
		Run:   runGamesInfo,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a game from the catalog",
		Args:  cobra.ExactArgs(1),
		Run:   runGamesDelete,
	}

	gamesCmd.AddCommand(listCmd, infoCmd, deleteCmd)
	rootCmd.AddCommand(gamesCmd)
}

func runGamesList(cmd *cobra.Command, _ []string) {
	database, err := openDB()
	if err != nil {
		exitErr("open database", err)
	}
	defer func() { _ = database.Close() }()

	games, err := library.NewManager(database).ListGames(cmd.Context())
	if err != nil {
		exitErr("list games", err)
	}

	rows := make([][]string, len(games))
	for i, game := range games {
		score := "-"
		if game.CriticScore != nil {
			score = fmt.Sprintf("%.0f", *game.CriticScore)
		}
		rows[i] = []string{
			strconv.FormatInt(game.ID, 10),
			game.Name,
			game.Platform,
			game.ReleaseDate,
			score,
			strings.Join(game.Genres, ", "),
		}
	}
	printTable([]string{"ID", "Name", "Platform", "Released", "Score", "Genres"}, rows)
}

func runGamesInfo(cmd *cobra.Command, args []string) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		exitErr("game info", fmt.Errorf("invalid id '%s'", args[0]))
	}

	database, err := openDB()
	if err != nil {
		exitErr("open database", err)
	}
	defer func() { _ = database.Close() }()

	game, err := library.NewManager(database).GetGame(cmd.Context(), id)
	if err != nil {
		exitErr("game info", err)
	}

	if jsonFlag {
		printResult(game)
		return
	}

	fmt.Printf("%s (%s)\n", game.Name, game.Platform)
	fmt.Printf("Path:     %s\n", game.Path)
	if game.ReleaseDate != "" {
		fmt.Printf("Released: %s\n", game.ReleaseDate)
	}
	if game.CriticScore != nil {
		fmt.Printf("Critics:  %.0f\n", *game.CriticScore)
	}
	if game.UserScore != nil {
		fmt.Printf("Users:    %.0f\n", *game.UserScore)
	}
	if len(game.Genres) > 0 {
		fmt.Printf("Genres:   %s\n", strings.Join(game.Genres, ", "))
	}
	for provider, url := range game.DetailURLs {
		fmt.Printf("URL:      %s (%s)\n", url, provider)
	}
	if game.Description != "" {
		fmt.Printf("\n%s\n", game.Description)
	}
}

func runGamesDelete(cmd *cobra.Command, args []string) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		exitErr("delete game", fmt.Errorf("invalid id '%s'", args[0]))
	}

	database, err := openDB()
	if err != nil {
		exitErr("open database", err)
	}
	defer func() { _ = database.Close() }()

	if err := library.NewManager(database).DeleteGame(cmd.Context(), id); err != nil {
		exitErr("delete game", err)
	}
	printResult(fmt.Sprintf("Deleted game %d", id))
}
