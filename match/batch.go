// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package match

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/oweaver/comptrack/feed"
)

// BatchOptions configures a batch run.
type BatchOptions struct {
	// MaxProcs bounds concurrent users; 0 means NumCPU
	MaxProcs int

	// Quiet suppresses the progress bar even on a terminal
	Quiet bool
}

// BatchMetrics summarizes a batch run.
type BatchMetrics struct {
	Users        int
	Succeeded    int
	Failed       int
	TotalMatches int
}

// Merge combines two BatchMetrics.
func (m *BatchMetrics) Merge(o *BatchMetrics) *BatchMetrics {
	m.Users += o.Users
	m.Succeeded += o.Succeeded
	m.Failed += o.Failed
	m.TotalMatches += o.TotalMatches

	return m
}

// BatchProcessor fans a user list out over the match engine.
type BatchProcessor struct {
	engine  *Engine
	options *BatchOptions

	Metrics BatchMetrics
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(engine *Engine, options *BatchOptions) *BatchProcessor {
	if options == nil {
		options = &BatchOptions{}
	}

	return &BatchProcessor{engine: engine, options: options}
}

// Run produces exactly one report per user, in input order. Per-user
// problems become failure reports; Run itself only observes them.
func (p *BatchProcessor) Run(ctx context.Context, users []User, competitions []feed.Competition) []*Report {
	n := len(users)
	reports := make([]*Report, n)

	// Warm the venue cache up front so concurrent users hit the
	// cache instead of each issuing their own bulk lookups.
	venues := make([]string, 0, len(competitions))

	for i := range competitions {
		if competitions[i].HasPostcode() {
			venues = append(venues, competitions[i].Postcode)
		}
	}

	if len(venues) > 0 {
		p.engine.resolver.ResolveMany(ctx, venues)
	}

	maxProcs := p.options.MaxProcs
	if maxProcs == 0 {
		maxProcs = runtime.NumCPU()
	}

	var bar *progressbar.ProgressBar
	if !p.options.Quiet && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetDescription("Matching users"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var wg sync.WaitGroup

	semaphore := make(chan struct{}, maxProcs)

	for i, user := range users {
		wg.Add(1)

		go func(i int, user User) {
			defer wg.Done()
			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			reports[i] = p.matchOne(ctx, user, competitions)

			if bar == nil {
				log.Printf("Matched %s", user.Name)
			} else if err := bar.Add(1); err != nil {
				log.Printf("Updating progress bar for %s: %s", user.Name, err)
			}
		}(i, user)
	}

	wg.Wait()

	metrics := BatchMetrics{Users: n}

	for _, report := range reports {
		if report.Failed() {
			metrics.Failed++
		} else {
			metrics.Succeeded++
			metrics.TotalMatches += len(report.Matches)
		}
	}

	p.Metrics.Merge(&metrics)

	log.Printf(
		"Batch complete - %d users, %d succeeded, %d failed, %d matches.",
		metrics.Users,
		metrics.Succeeded,
		metrics.Failed,
		metrics.TotalMatches,
	)

	return reports
}

// matchOne isolates a single user's matching, turning a panic into an
// internal failure report instead of killing the batch.
func (p *BatchProcessor) matchOne(ctx context.Context, user User, competitions []feed.Competition) (report *Report) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Matching %s panicked: %v", user.Name, r)

			report = failedReport(user, FailureInternal, fmt.Sprintf("internal error: %v", r))
		}
	}()

	return p.engine.Match(ctx, user, competitions)
}
