package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ykrasik/gamedex/library"
)

func init() {
	excludedCmd := &cobra.Command{
		Use:   "excluded",
		Short: "Manage paths excluded from matching",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List excluded paths",
		Run:   runExcludedList,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an exclusion so the path is offered again",
		Args:  cobra.ExactArgs(1),
		Run:   runExcludedDelete,
	}

	excludedCmd.AddCommand(listCmd, deleteCmd)
	rootCmd.AddCommand(excludedCmd)
}

func runExcludedList(cmd *cobra.Command, _ []string) {
	database, err := openDB()
	if err != nil {
		exitErr("open database", err)
	}
	defer func() { _ = database.Close() }()

	paths, err := library.NewManager(database).ListExcludedPaths(cmd.Context())
	if err != nil {
		exitErr("list excluded paths", err)
	}

	rows := make([][]string, len(paths))
	for i, p := range paths {
		rows[i] = []string{strconv.FormatInt(p.ID, 10), p.Path}
	}
	printTable([]string{"ID", "Path"}, rows)
}

func runExcludedDelete(cmd *cobra.Command, args []string) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		exitErr("delete exclusion", fmt.Errorf("invalid id '%s'", args[0]))
	}

	database, err := openDB()
	if err != nil {
		exitErr("open database", err)
	}
	defer func() { _ = database.Close() }()

	if err := library.NewManager(database).DeleteExcludedPath(cmd.Context(), id); err != nil {
		exitErr("delete exclusion", err)
	}
	printResult(fmt.Sprintf("Deleted exclusion %d", id))
}
