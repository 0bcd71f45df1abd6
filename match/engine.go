// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package match

import (
	"context"
	"fmt"
	"sort"

	"github.com/oweaver/comptrack/feed"
	"github.com/oweaver/comptrack/geo"
)

// Resolver is the postcode-to-coordinate capability the engine needs.
type Resolver interface {
	Resolve(ctx context.Context, postcode string) (geo.Point, error)
	ResolveMany(ctx context.Context, postcodes []string) map[string]geo.Result
}

// Engine matches one user at a time against a parsed feed.
type Engine struct {
	resolver Resolver
}

// NewEngine creates a match engine on top of a resolver.
func NewEngine(resolver Resolver) *Engine {
	return &Engine{resolver: resolver}
}

func failedReport(user User, kind FailureKind, message string) *Report {
	return &Report{
		User:    user,
		Failure: &Failure{Kind: kind, Message: message},
	}
}

// Match builds the report for one user. It never returns an error: any
// problem with the user's data or home postcode becomes a failure
// report, so one bad user cannot sink a batch.
func (e *Engine) Match(ctx context.Context, user User, competitions []feed.Competition) *Report {
	if err := user.Validate(); err != nil {
		return failedReport(user, FailureUser, err.Error())
	}

	home, err := e.resolver.Resolve(ctx, user.Postcode)
	if err != nil {
		message := fmt.Sprintf("home postcode %q could not be resolved: %s", user.Postcode, err)
		if geo.IsServiceFailure(err) {
			message = fmt.Sprintf("postcode service unavailable for %q: %s", user.Postcode, err)
		}

		return failedReport(user, FailureUser, message)
	}

	venues := make([]string, 0, len(competitions))

	for i := range competitions {
		if competitions[i].HasPostcode() {
			venues = append(venues, competitions[i].Postcode)
		}
	}

	resolved := e.resolver.ResolveMany(ctx, venues)

	report := &Report{User: user}

	for _, competition := range competitions {
		if !competition.HasPostcode() {
			report.SkippedVenues++

			continue
		}

		res, ok := resolved[competition.Postcode]
		if !ok || !res.OK {
			report.SkippedVenues++

			continue
		}

		distance := home.DistanceMiles(res.Point)
		if distance > user.MaxDistanceMiles {
			continue
		}

		report.Matches = append(report.Matches, MatchResult{
			Competition:   competition,
			DistanceMiles: distance,
		})
	}

	sort.SliceStable(report.Matches, func(i, j int) bool {
		if report.Matches[i].DistanceMiles != report.Matches[j].DistanceMiles {
			return report.Matches[i].DistanceMiles < report.Matches[j].DistanceMiles
		}

		return report.Matches[i].Competition.Name < report.Matches[j].Competition.Name
	})

	report.Stats = computeStats(report.Matches)

	return report
}

// computeStats returns nil for an empty match list; a no-match report
// is a success, not a failure.
func computeStats(matches []MatchResult) *Stats {
	if len(matches) == 0 {
		return nil
	}

	stats := &Stats{
		Count:         len(matches),
		NearestMiles:  matches[0].DistanceMiles,
		FarthestMiles: matches[len(matches)-1].DistanceMiles,
	}

	var total float64
	for _, m := range matches {
		total += m.DistanceMiles
	}

	stats.MeanMiles = total / float64(len(matches))

	return stats
}
