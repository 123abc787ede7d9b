package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ykrasik/gamedex/library"
)

var doctorFixFlag bool

func init() {
	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check catalog integrity",
		Long:  "Verifies the catalog's structural invariants: no path plays more than one role, no genre exists without games, and every game belongs to a library.",
		Run:   runDoctor,
	}
	doctorCmd.Flags().BoolVar(&doctorFixFlag, "fix", false, "Repair fixable issues")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) {
	database, err := openDB()
	if err != nil {
		exitErr("open database", err)
	}
	defer func() { _ = database.Close() }()

	manager := library.NewManager(database)
	report, err := library.NewIntegrityChecker(manager, doctorFixFlag).Check(cmd.Context())
	if err != nil {
		exitErr("doctor", err)
	}

	if jsonFlag {
		printResult(report)
		return
	}

	if report.OK() {
		fmt.Println("✓ All checks passed")
		return
	}
	for _, issue := range report.Issues {
		marker := "✗"
		if issue.Fixable {
			marker = "!"
		}
		fmt.Printf("%s [%s] %s\n", marker, issue.Check, issue.Detail)
	}
	if report.Fixed > 0 {
		fmt.Printf("Fixed %d issues\n", report.Fixed)
	} else if !doctorFixFlag {
		fmt.Println("Run with --fix to repair fixable issues")
	}
}
