// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Row is one spreadsheet row as a column-name to raw-value mapping.
// Rows never survive past Parse; everything downstream works on typed
// Competition values.
type Row map[string]string

// competitionProperty identifies which Competition field a spreadsheet
// column feeds.
type competitionProperty int

const (
	propIgnore competitionProperty = iota
	propName
	propBody
	propDate
	propVenue
	propPostcode
	propLevel
)

// normalizeHeader folds a column header for matching: accents removed,
// lowercased, trimmed.
func normalizeHeader(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// Column headers vary between feed exports. Matching is by keyword
// containment on the folded header, most specific first, so "pot venue"
// hits propBody before the generic venue keywords.
var headerKeywords = []struct {
	prop     competitionProperty
	keywords []string
}{
	{propPostcode, []string{"postcode", "post code", "post_code", "postal code"}},
	{propDate, []string{"date"}},
	{propLevel, []string{"level", "licence", "license"}},
	{propBody, []string{"pot venue", "organising body", "organizing body", "host", "club"}},
	{propVenue, []string{"venue", "location", "place"}},
	{propName, []string{"name", "title", "event", "competition", "meeting"}},
}

func propertyFromHeader(header string) competitionProperty {
	folded := normalizeHeader(header)

	for _, entry := range headerKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(folded, keyword) {
				return entry.prop
			}
		}
	}

	return propIgnore
}

// ParseMetrics tracks statistics about one parse pass.
type ParseMetrics struct {
	Rows             int
	Competitions     int
	SkippedRows      int
	UnknownPostcodes int
}

// Merge combines two ParseMetrics.
func (m *ParseMetrics) Merge(o *ParseMetrics) *ParseMetrics {
	m.Rows += o.Rows
	m.Competitions += o.Competitions
	m.SkippedRows += o.SkippedRows
	m.UnknownPostcodes += o.UnknownPostcodes

	return m
}

func (record *Competition) set(prop competitionProperty, s string) {
	s = strings.TrimSpace(s)

	switch prop {
	case propName:
		if record.Name == "" {
			record.Name = s
		}
	case propBody:
		if record.Body == "" {
			record.Body = s
		}
	case propDate:
		if record.Date.IsZero() {
			record.Date = parseDate(s)
		}
	case propVenue:
		if record.Venue == "" {
			record.Venue = s
		}
	case propPostcode:
		if record.Postcode == "" {
			record.Postcode = normalizePostcodeField(s)
		}
	case propLevel:
		if record.Level == "" {
			record.Level = s
		}
	case propIgnore:
		// skip
	}
}

// Parse converts spreadsheet rows into competitions. Rows missing a
// name or a parseable date are dropped and counted, never fatal. Output
// order equals input order.
func Parse(rows []Row) ([]Competition, ParseMetrics) {
	metrics := ParseMetrics{Rows: len(rows)}
	competitions := make([]Competition, 0, len(rows))

	for _, row := range rows {
		// Map iteration order is random; sort the columns so that
		// two columns mapping to the same property pick the same
		// winner on every run.
		columns := make([]string, 0, len(row))
		for column := range row {
			columns = append(columns, column)
		}

		sort.Strings(columns)

		var record Competition

		hadPostcodeValue := false

		for _, column := range columns {
			value := row[column]

			prop := propertyFromHeader(column)
			if prop == propPostcode && strings.TrimSpace(value) != "" {
				hadPostcodeValue = true
			}

			record.set(prop, value)
		}

		if err := record.Validate(); err != nil {
			metrics.SkippedRows++

			continue
		}

		if hadPostcodeValue && !record.HasPostcode() {
			metrics.UnknownPostcodes++
		}

		competitions = append(competitions, record)
		metrics.Competitions++
	}

	return competitions, metrics
}
