// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/oweaver/comptrack/feed"
	"github.com/oweaver/comptrack/geo"
)

const defaultFeedURL = "https://www.englandathletics.org/competition/licensed-competitions/"

var (
	fetchOptions = &feed.FetchOptions{}
	fetchURL     string
	fetchSkip    bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the latest competition feed and load it into the database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var path string

		var err error

		if fetchSkip {
			path, err = feed.LatestFeed(feedDir())
		} else {
			fetchOptions.UserAgent = userAgent()
			path, err = feed.NewFetcher(fetchOptions).Fetch(cmd.Context(), fetchURL, feedDir())
		}

		if err != nil {
			return err
		}

		log.Printf("Loading feed %s", path)

		rows, err := feed.LoadFile(path)
		if err != nil {
			return err
		}

		competitions, metrics := feed.Parse(rows)
		log.Printf(
			"Parsed %d competitions from %d rows - %d skipped, %d without a usable postcode",
			metrics.Competitions,
			metrics.Rows,
			metrics.SkippedRows,
			metrics.UnknownPostcodes,
		)

		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		repo := feed.NewCompetitionRepository(db)
		if err := repo.CreateSchema(); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}

		if err := repo.ReplaceCompetitions(competitions); err != nil {
			return fmt.Errorf("storing competitions: %w", err)
		}

		resolver, err := buildResolver(db)
		if err != nil {
			return err
		}

		venues := make([]string, 0, len(competitions))

		for i := range competitions {
			if competitions[i].HasPostcode() {
				venues = append(venues, competitions[i].Postcode)
			}
		}

		points := make(map[string]geo.Point)

		for postcode, res := range resolver.ResolveMany(cmd.Context(), venues) {
			if res.OK {
				points[postcode] = res.Point
			}
		}

		if err := repo.BackfillVenueCells(points); err != nil {
			return fmt.Errorf("backfilling venue cells: %w", err)
		}

		rm := resolver.Metrics()
		log.Printf(
			"Geocoding complete - %d venues placed, %d unresolved, %d cache hits, %d external calls",
			len(points),
			rm.Unresolved,
			rm.CacheHits,
			rm.ExternalCalls,
		)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVar(
		&fetchURL,
		"url",
		defaultFeedURL,
		"Feed URL, either the spreadsheet itself or a page linking to it",
	)
	fetchCmd.Flags().BoolVar(
		&fetchSkip,
		"skip-download",
		false,
		"Reload the most recently downloaded feed instead of fetching",
	)
	fetchCmd.Flags().BoolVar(
		&fetchOptions.EnableHTTPTrace,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	fetchCmd.Flags().BoolVar(
		&fetchOptions.EnableHTTPBodyTrace,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
}
