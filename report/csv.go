// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/oweaver/comptrack/match"
)

// WriteMatchesCSV writes a report's matches as CSV, nearest first.
func WriteMatchesCSV(w io.Writer, report *match.Report) error {
	writer := csv.NewWriter(w)

	header := []string{"date", "name", "body", "venue", "postcode", "level", "distance_miles"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, m := range report.Matches {
		record := []string{
			m.Competition.Date.Format("2006-01-02"),
			m.Competition.Name,
			m.Competition.Body,
			m.Competition.Venue,
			m.Competition.Postcode,
			m.Competition.Level,
			strconv.FormatFloat(m.DistanceMiles, 'f', 1, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
	}

	writer.Flush()

	return writer.Error()
}

// ExportCSV writes a report's matches to dir and returns the file path.
func ExportCSV(dir string, report *match.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(dir, slugify(report.User.Name)+".csv")

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}

	if err := WriteMatchesCSV(f, report); err != nil {
		f.Close()

		return "", err
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing export file: %w", err)
	}

	return path, nil
}
