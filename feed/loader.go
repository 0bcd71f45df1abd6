// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LoadCSV reads a CSV feed into rows keyed by the header line. Ragged
// records are tolerated; missing trailing cells become empty values.
func LoadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv feed: %w", err)
	}

	if len(records) == 0 {
		return nil, errors.New("empty feed")
	}

	headers := records[0]
	// Excel exports often prepend a UTF-8 BOM to the first header.
	headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")

	for i, header := range headers {
		headers[i] = strings.TrimSpace(header)
	}

	rows := make([]Row, 0, len(records)-1)

	for _, record := range records[1:] {
		row := make(Row, len(headers))
		empty := true

		for i, header := range headers {
			var value string
			if i < len(record) {
				value = record[i]
			}

			if strings.TrimSpace(value) != "" {
				empty = false
			}

			row[header] = value
		}

		if empty {
			continue
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// LoadFile loads a feed file from disk. Only CSV is supported.
func LoadFile(path string) ([]Row, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		return nil, fmt.Errorf("unsupported feed format %q", ext)
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("opening feed file: %w", err)
	}
	defer f.Close()

	return LoadCSV(f)
}

// LatestFeed returns the most recently modified feed file in dir.
func LatestFeed(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return "", fmt.Errorf("listing feed files: %w", err)
	}

	if len(matches) == 0 {
		return "", fmt.Errorf("no feed files in %q, run fetch first", dir)
	}

	var latest string

	var latestMod int64

	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		if mod := info.ModTime().UnixNano(); latest == "" || mod > latestMod {
			latest, latestMod = path, mod
		}
	}

	return latest, nil
}
