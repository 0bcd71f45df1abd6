// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package match

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// userColumn identifies which User field a CSV column feeds.
type userColumn int

const (
	columnIgnore userColumn = iota
	columnName
	columnEmail
	columnPostcode
	columnDistance
)

var userHeaderKeywords = []struct {
	column   userColumn
	keywords []string
}{
	{columnEmail, []string{"email", "e-mail"}},
	{columnPostcode, []string{"postcode", "post code"}},
	{columnDistance, []string{"distance", "miles", "radius"}},
	{columnName, []string{"name"}},
}

func userColumnFromHeader(header string) userColumn {
	folded := strings.ToLower(strings.TrimSpace(header))

	for _, entry := range userHeaderKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(folded, keyword) {
				return entry.column
			}
		}
	}

	return columnIgnore
}

// ReadUsers reads a user list from CSV. Rows with unparseable values
// are kept with zero fields so the batch surfaces them as per-user
// failure reports rather than silently dropping subscribers.
func ReadUsers(r io.Reader) ([]User, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading user list: %w", err)
	}

	if len(records) == 0 {
		return nil, errors.New("empty user list")
	}

	columns := make([]userColumn, len(records[0]))
	for i, header := range records[0] {
		columns[i] = userColumnFromHeader(header)
	}

	users := make([]User, 0, len(records)-1)

	for _, record := range records[1:] {
		var user User

		empty := true

		for i, value := range record {
			if i >= len(columns) {
				break
			}

			value = strings.TrimSpace(value)
			if value != "" {
				empty = false
			}

			switch columns[i] {
			case columnName:
				user.Name = value
			case columnEmail:
				user.Email = value
			case columnPostcode:
				user.Postcode = value
			case columnDistance:
				// A bad number becomes zero and fails user
				// validation later, visibly.
				user.MaxDistanceMiles, _ = strconv.ParseFloat(value, 64)
			case columnIgnore:
				// skip
			}
		}

		if empty {
			continue
		}

		users = append(users, user)
	}

	return users, nil
}

// LoadUsers reads a user list from a CSV file on disk.
func LoadUsers(path string) ([]User, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("opening user list: %w", err)
	}
	defer f.Close()

	return ReadUsers(f)
}
