// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"database/sql"
	"fmt"
	"sync"
)

// SQLCacheStore persists geocode results in DuckDB so repeat runs skip
// the network for postcodes already seen.
type SQLCacheStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLCacheStore creates the store and its schema.
func NewSQLCacheStore(db *sql.DB) (*SQLCacheStore, error) {
	store := &SQLCacheStore{db: db}
	if err := store.createSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLCacheStore) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS geocode_cache (
			postcode VARCHAR PRIMARY KEY,
			resolved BOOLEAN NOT NULL,
			lat DOUBLE,
			lng DOUBLE,
			looked_up_at TIMESTAMP DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("creating geocode_cache table: %w", err)
	}

	return nil
}

// Load returns every persisted resolution result keyed by canonical
// postcode.
func (s *SQLCacheStore) Load() (map[string]Result, error) {
	rows, err := s.db.Query(`SELECT postcode, resolved, lat, lng FROM geocode_cache`)
	if err != nil {
		return nil, fmt.Errorf("loading geocode cache: %w", err)
	}
	defer rows.Close()

	ret := make(map[string]Result)

	for rows.Next() {
		var postcode string

		var resolved bool

		var lat, lng sql.NullFloat64

		if err := rows.Scan(&postcode, &resolved, &lat, &lng); err != nil {
			return nil, fmt.Errorf("scanning geocode cache row: %w", err)
		}

		res := Result{OK: resolved}
		if resolved {
			res.Point = Point{Lat: lat.Float64, Lng: lng.Float64}
		}

		ret[postcode] = res
	}

	return ret, rows.Err()
}

// Save upserts one resolution result. Unresolved entries store NULL
// coordinates so the negative answer survives restarts too.
func (s *SQLCacheStore) Save(postcode string, r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lat, lng any
	if r.OK {
		lat, lng = r.Point.Lat, r.Point.Lng
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO geocode_cache (postcode, resolved, lat, lng, looked_up_at)
		VALUES (?, ?, ?, ?, now())
	`, postcode, r.OK, lat, lng)
	if err != nil {
		return fmt.Errorf("saving geocode cache entry: %w", err)
	}

	return nil
}
