// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/spf13/cobra"

	"github.com/oweaver/comptrack/geo"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "comptrack",
	Short: "licensed athletics competition tracker",
	Long: `
comptrack keeps a local copy of the licensed competition feed, resolves
venue postcodes to coordinates, and tells each subscribed athlete which
competitions fall within travelling distance of home.
`,
}

var Version = "dev"

var (
	dataPath     string
	postcodesURL string
)

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&dataPath,
		"data-path",
		"data",
		"Base directory for the database and downloaded feeds",
	)
	rootCmd.PersistentFlags().StringVar(
		&postcodesURL,
		"postcodes-url",
		"",
		"Override the postcode lookup service base URL",
	)
}

func userAgent() string {
	return fmt.Sprintf("comptrack/%s (+https://github.com/oweaver/comptrack)", Version)
}

func feedDir() string {
	return filepath.Join(dataPath, "feeds")
}

// openDatabase opens the local duckdb file, creating the data
// directory on first run.
func openDatabase() (*sql.DB, error) {
	if err := os.MkdirAll(dataPath, 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(dataPath, "comptrack.duckdb"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return db, nil
}

// buildResolver wires the postcode client to the persistent geocode
// cache living in the same database as the feed.
func buildResolver(db *sql.DB) (*geo.Resolver, error) {
	store, err := geo.NewSQLCacheStore(db)
	if err != nil {
		return nil, fmt.Errorf("initializing geocode cache: %w", err)
	}

	return geo.NewResolver(geo.NewClient(postcodesURL), store)
}
