// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/oweaver/comptrack/geo"
)

// CompetitionRepository handles persistence of the parsed feed.
type CompetitionRepository interface {
	// CreateSchema creates the competitions table
	CreateSchema() error

	// ReplaceCompetitions swaps the stored feed for a fresh parse
	ReplaceCompetitions(competitions []Competition) error

	// Competitions returns the stored feed ordered by date then name
	Competitions() ([]Competition, error)

	// CountCompetitions returns the number of stored competitions
	CountCompetitions() (int, error)

	// BackfillVenueCells stores H3 cells for venues whose postcode
	// resolved to a coordinate
	BackfillVenueCells(points map[string]geo.Point) error

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlCompetitionRepository struct {
	db *sql.DB
}

// NewCompetitionRepository creates a competition repository backed by db.
func NewCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &sqlCompetitionRepository{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (r *sqlCompetitionRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlCompetitionRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS competitions (
			name VARCHAR NOT NULL,
			body VARCHAR,
			event_date DATE NOT NULL,
			venue VARCHAR,
			postcode VARCHAR,
			level VARCHAR,
			h3_res5 UBIGINT,
			h3_res7 UBIGINT,
			loaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)

	return err
}

func (r *sqlCompetitionRepository) ReplaceCompetitions(competitions []Competition) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM competitions`); err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO competitions(name, body, event_date, venue, postcode, level, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer stmt.Close()

	loadedAt := time.Now()

	for i := range competitions {
		c := &competitions[i]

		postcode := &c.Postcode
		if !c.HasPostcode() {
			postcode = nil
		}

		_, err := stmt.Exec(c.Name, c.Body, c.Date, c.Venue, postcode, c.Level, loadedAt)
		if err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return err
		}
	}

	return tx.Commit()
}

func (r *sqlCompetitionRepository) Competitions() ([]Competition, error) {
	rows, err := r.db.Query(`
		SELECT name, body, event_date, venue, postcode, level
		FROM competitions
		ORDER BY event_date, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var competitions []Competition

	for rows.Next() {
		var c Competition

		var body, venue, postcode, level sql.NullString

		if err := rows.Scan(&c.Name, &body, &c.Date, &venue, &postcode, &level); err != nil {
			return nil, err
		}

		c.Body = body.String
		c.Venue = venue.String
		c.Postcode = postcode.String
		c.Level = level.String

		competitions = append(competitions, c)
	}

	return competitions, rows.Err()
}

func (r *sqlCompetitionRepository) CountCompetitions() (int, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM competitions",
	).Scan(&count)

	return count, err
}

// BackfillVenueCells stores H3 cells at resolutions 5 and 7 for every
// competition whose postcode appears in points.
func (r *sqlCompetitionRepository) BackfillVenueCells(points map[string]geo.Point) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		UPDATE competitions SET h3_res5 = ?, h3_res7 = ? WHERE postcode = ?
	`)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer stmt.Close()

	for postcode, point := range points {
		res5, err := point.Cell(5)
		if err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return fmt.Errorf("computing cells for %q: %w", postcode, err)
		}

		res7, err := point.Cell(7)
		if err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return fmt.Errorf("computing cells for %q: %w", postcode, err)
		}

		if _, err := stmt.Exec(res5, res7, postcode); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return err
		}
	}

	return tx.Commit()
}
