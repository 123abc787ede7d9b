package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ykrasik/gamedex/library"
	"github.com/ykrasik/gamedex/metrics"
	"github.com/ykrasik/gamedex/task"
)

func init() {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Manage scannable library directories",
	}

	addCmd := &cobra.Command{
		Use:   "add <path> <platform> [name]",
		Short: "Register a directory as a library",
		Args:  cobra.RangeArgs(2, 3),
		Run:   runLibraryAdd,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered libraries",
		Run:   runLibraryList,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a library (games are kept)",
		Args:  cobra.ExactArgs(1),
		Run:   runLibraryDelete,
	}

	refreshCmd := &cobra.Command{
		Use:   "refresh [id]",
		Short: "Scan libraries for new game directories",
		Long:  "Scans one library (or all of them) and resolves every unmapped child directory against the configured metadata providers. Ctrl-C cancels at the next path boundary.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runLibraryRefresh,
	}

	libraryCmd.AddCommand(addCmd, listCmd, deleteCmd, refreshCmd)
	rootCmd.AddCommand(libraryCmd)
}

func runLibraryAdd(cmd *cobra.Command, args []string) {
	path, err := filepath.Abs(args[0])
	if err != nil {
		exitErr("resolve path", err)
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		exitErr("add library", fmt.Errorf("'%s' is not a directory", path))
	}

	platform := args[1]
	name := filepath.Base(path)
	if len(args) == 3 {
		name = args[2]
	}

	database, err := openDB()
	if err != nil {
		exitErr("open database", err)
	}
	defer func() { _ = database.Close() }()

	lib, err := library.NewManager(database).AddLibrary(cmd.Context(), path, platform, name)
	if err != nil {
		exitErr("add library", err)
	}
	printResult(fmt.Sprintf("Added library %d: %s (%s)", lib.ID, lib.Path, lib.Platform))
}

func runLibraryList(cmd *cobra.Command, _ []string) {
	database, err := openDB()
	if err != nil {
		exitErr("open database", err)
	}
	defer func() { _ = database.Close() }()

	libraries, err := library.NewManager(database).ListLibraries(cmd.Context())
	if err != nil {
		exitErr("list libraries", err)
	}

	rows := make([][]string, len(libraries))
	for i, lib := range libraries {
		rows[i] = []string{strconv.FormatInt(lib.ID, 10), lib.Name, lib.Platform, lib.Path}
	}
	printTable([]string{"ID", "Name", "Platform", "Path"}, rows)
}

func runLibraryDelete(cmd *cobra.Command, args []string) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		exitErr("delete library", fmt.Errorf("invalid id '%s'", args[0]))
	}

	database, err := openDB()
	if err != nil {
		exitErr("open database", err)
	}
	defer func() { _ = database.Close() }()

	if err := library.NewManager(database).DeleteLibrary(cmd.Context(), id); err != nil {
		exitErr("delete library", err)
	}
	printResult(fmt.Sprintf("Deleted library %d", id))
}

func runLibraryRefresh(cmd *cobra.Command, args []string) {
	database, err := openDB()
	if err != nil {
		exitErr("open database", err)
	}
	defer func() { _ = database.Close() }()

	tk := task.New(cmd.Context())
	scanner, manager, err := buildScanner(database, tk)
	if err != nil {
		exitErr("configure scanner", err)
	}

	// Ctrl-C cancels cooperatively at the next path boundary.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Println("\ncancelling...")
		tk.Cancel()
	}()

	done := make(chan struct{})
	go consumeUpdates(tk, done)

	var result *library.RefreshResult
	if len(args) == 1 {
		id, parseErr := strconv.ParseInt(args[0], 10, 64)
		if parseErr != nil {
			exitErr("refresh", fmt.Errorf("invalid id '%s'", args[0]))
		}
		lib, libErr := manager.GetLibrary(tk.Context(), id)
		if libErr != nil {
			exitErr("refresh", libErr)
		}
		result, err = scanner.Refresh(tk.Context(), lib)
	} else {
		result, err = scanner.RefreshAll(tk.Context())
	}

	if tk.Context().Err() != nil {
		tk.MarkCancelled()
	} else if err != nil {
		tk.Finish("failed")
	} else {
		tk.Finish("done")
	}
	<-done

	if err != nil && tk.Context().Err() == nil {
		exitErr("refresh", err)
	}

	if mErr := metrics.UpdateDBMetrics(database); mErr != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: failed to update metrics: %v\n", mErr)
	}

	if result != nil {
		if tk.Status().Cancelled {
			fmt.Println("Refresh cancelled")
		}
		printResult(map[string]interface{}{
			"processed": result.Processed,
			"added":     result.Added,
			"skipped":   result.Skipped,
			"excluded":  result.Excluded,
			"failed":    result.Failed,
		})
	}
}

// consumeUpdates renders task progress with a terminal progress bar.
// The single-slot updates channel means a slow terminal never stalls
// the scan.
func consumeUpdates(tk *task.Task, done chan<- struct{}) {
	defer close(done)
	if jsonFlag {
		for s := range tk.Updates() {
			if s.Done {
				return
			}
		}
		return
	}

	bar := progressbar.Default(-1, "Scanning")
	for s := range tk.Updates() {
		if s.Message != "" {
			bar.Describe(s.Message)
		}
		if !s.Indeterminate && s.Total > 0 {
			if bar.GetMax() != s.Total {
				bar.ChangeMax(s.Total)
			}
			_ = bar.Set(s.Current)
		}
		if s.Done {
			_ = bar.Finish()
			fmt.Println()
			return
		}
	}
}
