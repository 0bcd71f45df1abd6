// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package match ranks competitions by distance from a user's home
// postcode and produces per-user reports.
package match

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/oweaver/comptrack/feed"
	"github.com/oweaver/comptrack/geo"
)

// User is one subscriber to competition reports.
type User struct {
	Name             string  `json:"name"`
	Email            string  `json:"email,omitempty"`
	Postcode         string  `json:"postcode"`
	MaxDistanceMiles float64 `json:"max_distance_miles"`
}

// Validate checks the fields a report cannot be built without. Email is
// optional; when present it must be a deliverable address.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("user has no name")
	}

	if _, ok := geo.NormalizePostcode(u.Postcode); !ok {
		return fmt.Errorf("user %q has invalid postcode %q", u.Name, u.Postcode)
	}

	if u.MaxDistanceMiles <= 0 {
		return fmt.Errorf("user %q has non-positive travel distance %v", u.Name, u.MaxDistanceMiles)
	}

	if u.Email != "" {
		if _, err := mail.ParseAddress(u.Email); err != nil {
			return fmt.Errorf("user %q has invalid email %q: %w", u.Name, u.Email, err)
		}
	}

	return nil
}

// MatchResult pairs a competition with its distance from the user's
// home postcode.
type MatchResult struct {
	Competition   feed.Competition `json:"competition"`
	DistanceMiles float64          `json:"distance_miles"`
}

// Stats summarizes the distances of a non-empty match list.
type Stats struct {
	Count         int     `json:"count"`
	NearestMiles  float64 `json:"nearest_miles"`
	FarthestMiles float64 `json:"farthest_miles"`
	MeanMiles     float64 `json:"mean_miles"`
}

// FailureKind classifies why a report carries no matches.
type FailureKind string

const (
	// FailureUser covers problems with the user's own data: an
	// invalid record or an unresolvable home postcode.
	FailureUser FailureKind = "user"

	// FailureInternal covers unexpected processing errors.
	FailureInternal FailureKind = "internal"
)

// Failure describes why a user's report could not be built.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Report is the outcome of matching one user against the feed. Exactly
// one of Failure or the match fields is meaningful: a failed report has
// no matches, a successful one has no failure. Stats is nil when no
// competition fell within range. SkippedVenues counts competitions left
// out because their venue had no usable coordinate.
type Report struct {
	User          User          `json:"user"`
	Matches       []MatchResult `json:"matches"`
	Stats         *Stats        `json:"stats,omitempty"`
	SkippedVenues int           `json:"skipped_venues,omitempty"`
	Failure       *Failure      `json:"failure,omitempty"`
}

// Failed reports whether the report carries a failure instead of
// matches.
func (r *Report) Failed() bool {
	return r.Failure != nil
}
