package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var servePortFlag string

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only catalog API with health and metrics endpoints",
		Run:   runServe,
	}
	serveCmd.Flags().StringVar(&servePortFlag, "port", "8080", "Listen port")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	database, err := openDB()
	if err != nil {
		exitErr("open database", err)
	}
	defer func() { _ = database.Close() }()

	fmt.Printf("GameDex catalog API\n")
	fmt.Printf("   http://localhost:%s\n\n", servePortFlag)

	srv := &http.Server{
		Addr:         ":" + servePortFlag,
		Handler:      newServer(database),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		exitErr("serve", err)
	}
}
