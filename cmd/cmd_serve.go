// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/oweaver/comptrack/feed"
	"github.com/oweaver/comptrack/match"
	"github.com/oweaver/comptrack/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stored feed and match queries over HTTP",
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		repo := feed.NewCompetitionRepository(db)
		if err := repo.CreateSchema(); err != nil {
			return err
		}

		resolver, err := buildResolver(db)
		if err != nil {
			return err
		}

		log.Printf("Listening on %s", serveAddr)

		return server.NewServer(repo, match.NewEngine(resolver), serveAddr).Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(
		&serveAddr,
		"listen",
		"localhost:8080",
		"Address to listen on",
	)
}
