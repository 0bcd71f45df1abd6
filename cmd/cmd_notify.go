// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/oweaver/comptrack/feed"
	"github.com/oweaver/comptrack/match"
	"github.com/oweaver/comptrack/report"
)

var (
	notifyUsersPath string
	notifyOutput    string
	notifyOptions   = &match.BatchOptions{}
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Build a report for every subscribed user and deliver it by email",
	Long: `
notify reads the user list, matches every user against the stored feed,
and emails each one their report. Delivery is gated on SEND_EMAILS=true
in the environment; without it the run is a rehearsal that only logs,
and --output can save the rendered emails for inspection.
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		users, err := match.LoadUsers(notifyUsersPath)
		if err != nil {
			return err
		}

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

		mailerCfg, err := report.ConfigFromEnv()
		if err != nil {
			return err
		}

		mailer, err := report.NewMailer(mailerCfg)
		if err != nil {
			return err
		}

		renderer, err := report.NewRenderer()
		if err != nil {
			return err
		}

		processor := match.NewBatchProcessor(match.NewEngine(resolver), notifyOptions)
		reports := processor.Run(cmd.Context(), users, competitions)

		var delivered, saved, failed int

		for _, r := range reports {
			if r.Failed() {
				log.Printf("Report for %s failed (%s) - %s", r.User.Name, r.Failure.Kind, r.Failure.Message)
				failed++

				continue
			}

			body, err := renderer.Render(r)
			if err != nil {
				log.Printf("Rendering report for %s - %s", r.User.Name, err)
				failed++

				continue
			}

			if notifyOutput != "" {
				if _, err := renderer.SaveEmail(notifyOutput, r); err != nil {
					log.Printf("Saving report for %s - %s", r.User.Name, err)
				} else {
					saved++
				}
			}

			if r.User.Email == "" {
				log.Printf("User %s has no email address, report not sent", r.User.Name)

				continue
			}

			if err := mailer.Send(r.User.Email, renderer.Subject(r), body); err != nil {
				log.Printf("Sending report to %s - %s", r.User.Email, err)
				failed++

				continue
			}

			delivered++
		}

		log.Printf(
			"Notify complete - %d users, %d delivered, %d saved, %d failed",
			len(reports),
			delivered,
			saved,
			failed,
		)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.Flags().StringVar(
		&notifyUsersPath,
		"users",
		"",
		"CSV file with subscribed users (name, email, postcode, max distance)",
	)
	notifyCmd.Flags().StringVar(
		&notifyOutput,
		"output",
		"",
		"Directory to save rendered emails into",
	)
	notifyCmd.Flags().IntVar(
		&notifyOptions.MaxProcs,
		"max-procs",
		0,
		"Max number of users to match concurrently. Defaults to the number of CPUs",
	)
	notifyCmd.Flags().BoolVar(
		&notifyOptions.Quiet,
		"quiet",
		false,
		"Suppress the progress bar",
	)

	if err := notifyCmd.MarkFlagRequired("users"); err != nil {
		panic(err)
	}
}
