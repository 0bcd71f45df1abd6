// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oweaver/comptrack/feed"
	"github.com/oweaver/comptrack/match"
	"github.com/oweaver/comptrack/report"
)

var (
	findPostcode string
	findDistance float64
	findCSV      string
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "List competitions within travelling distance of a postcode",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		repo := feed.NewCompetitionRepository(db)

		competitions, err := repo.Competitions()
		if err != nil {
			return fmt.Errorf("loading competitions: %w", err)
		}

		if len(competitions) == 0 {
			return errors.New("no competitions stored, run fetch first")
		}

		resolver, err := buildResolver(db)
		if err != nil {
			return err
		}

		user := match.User{
			Name:             "command line",
			Postcode:         findPostcode,
			MaxDistanceMiles: findDistance,
		}

		result := match.NewEngine(resolver).Match(cmd.Context(), user, competitions)
		if result.Failed() {
			return errors.New(result.Failure.Message)
		}

		printMatches(result)

		if result.SkippedVenues > 0 {
			log.Printf("%d competitions had no usable venue postcode and were left out", result.SkippedVenues)
		}

		if findCSV != "" {
			path, err := report.ExportCSV(findCSV, result)
			if err != nil {
				return err
			}

			log.Printf("Wrote %s", path)
		}

		return nil
	},
}

func printMatches(result *match.Report) {
	if len(result.Matches) == 0 {
		fmt.Printf("No competitions within %.0f miles of %s\n", result.User.MaxDistanceMiles, result.User.Postcode)

		return
	}

	a, b, c, d := strings.Repeat("─", 10), strings.Repeat("─", 40), strings.Repeat("─", 30), strings.Repeat("─", 8)
	fmt.Printf("Competitions within %.0f miles of %s:\n", result.User.MaxDistanceMiles, result.User.Postcode)
	fmt.Printf("╭─%10s─┬─%-40s─┬─%-30s─┬─%8s─╮\n", a, b, c, d)
	fmt.Printf("│ %10s │ %-40s │ %-30s │ %8s │\n", "Date", "Competition", "Venue", "Miles")
	fmt.Printf("├─%10s─┼─%-40s─┼─%-30s─┼─%8s─┤\n", a, b, c, d)

	for _, m := range result.Matches {
		fmt.Printf("│ %10s │ %-40s │ %-30s │ %8.1f │\n",
			m.Competition.Date.Format("2006-01-02"),
			truncate(m.Competition.Name, 40),
			truncate(m.Competition.Venue, 30),
			m.DistanceMiles,
		)
	}

	fmt.Printf("╰─%10s─┴─%-40s─┴─%-30s─┴─%8s─╯\n", a, b, c, d)

	if result.Stats != nil {
		fmt.Printf("%d matches - nearest %.1f mi, farthest %.1f mi, average %.1f mi\n",
			result.Stats.Count,
			result.Stats.NearestMiles,
			result.Stats.FarthestMiles,
			result.Stats.MeanMiles,
		)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n-1] + "…"
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().StringVar(
		&findPostcode,
		"postcode",
		"",
		"Home postcode to measure distances from",
	)
	findCmd.Flags().Float64Var(
		&findDistance,
		"distance",
		25,
		"Maximum distance in miles",
	)
	findCmd.Flags().StringVar(
		&findCSV,
		"csv",
		"",
		"Also export the matches as CSV into this directory",
	)

	if err := findCmd.MarkFlagRequired("postcode"); err != nil {
		panic(err)
	}
}
