// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package feed turns the licensed-competition spreadsheet feed into
// typed Competition records.
package feed

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oweaver/comptrack/geo"
)

// Competition is one licensed athletics competition from the feed.
// Postcode holds the canonical venue postcode, or "" when the feed
// value was missing or malformed; such competitions are still listed
// but carry no usable location.
type Competition struct {
	Name     string    `json:"name"`
	Body     string    `json:"body,omitempty"`
	Date     time.Time `json:"date"`
	Venue    string    `json:"venue,omitempty"`
	Postcode string    `json:"postcode,omitempty"`
	Level    string    `json:"level,omitempty"`
}

// HasPostcode reports whether the venue postcode is usable for
// distance calculations.
func (c *Competition) HasPostcode() bool {
	return c.Postcode != ""
}

var (
	errMissingName = errors.New("missing competition name")
	errMissingDate = errors.New("missing or unparseable date")
)

// Validate checks the fields a competition cannot be listed without.
// Venue and postcode problems are tolerated; name and date are not.
func (c *Competition) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errMissingName
	}

	if c.Date.IsZero() {
		return errMissingDate
	}

	return nil
}

// Spreadsheet exports are inconsistent about date shapes; some sheets
// carry a spurious midnight timestamp.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"02-01-2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	"2 January 2006",
	"02 Jan 2006",
	"Monday 2 January 2006",
}

// parseDate tries the accepted layouts in order. Returns the zero time
// when none match.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	return time.Time{}
}

// normalizePostcodeField canonicalizes a feed postcode value, returning
// "" for missing or malformed values rather than an error.
func normalizePostcodeField(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	canonical, ok := geo.NormalizePostcode(s)
	if !ok {
		return ""
	}

	return canonical
}

// String implements fmt.Stringer for log lines.
func (c *Competition) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Date.Format("2006-01-02"))
}
