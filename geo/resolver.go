// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// LookupClient is the external coordinate-lookup capability.
type LookupClient interface {
	Lookup(ctx context.Context, postcode string) (Point, error)
	BulkLookup(ctx context.Context, postcodes []string) (map[string]*Point, error)
}

// Result is the outcome of resolving one postcode. OK is false when the
// postcode is unresolved, either definitively (unknown postcode) or for
// this run only (service failure).
type Result struct {
	Point Point
	OK    bool
}

// CacheStore persists resolution results across runs. Implementations
// must tolerate concurrent Save calls.
type CacheStore interface {
	Load() (map[string]Result, error)
	Save(postcode string, r Result) error
}

// ResolverMetrics counts cache and lookup activity during a run.
type ResolverMetrics struct {
	CacheHits     int
	CacheMisses   int
	ExternalCalls int
	Unresolved    int
}

// Resolver resolves postcodes to coordinates with a process-lifetime
// cache shared across an entire batch run. Negative results are cached
// too, so a bad postcode costs one external round trip at most.
type Resolver struct {
	client LookupClient
	store  CacheStore // optional

	mu      sync.Mutex
	cache   map[string]Result
	metrics ResolverMetrics
}

// NewResolver creates a resolver. A nil store disables persistence;
// otherwise the cache is warmed from the store.
func NewResolver(client LookupClient, store CacheStore) (*Resolver, error) {
	cache := make(map[string]Result)

	if store != nil {
		loaded, err := store.Load()
		if err != nil {
			return nil, fmt.Errorf("warming geocode cache: %w", err)
		}

		cache = loaded
	}

	return &Resolver{
		client: client,
		store:  store,
		cache:  cache,
	}, nil
}

// Metrics returns a snapshot of the run counters.
func (r *Resolver) Metrics() ResolverMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.metrics
}

func (r *Resolver) cached(postcode string) (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.cache[postcode]
	if ok {
		r.metrics.CacheHits++
	} else {
		r.metrics.CacheMisses++
	}

	return res, ok
}

// remember stores a result in the cache. Definitive results (found, or
// confirmed unknown) also go to the persistent store; transient service
// failures are remembered for this run only.
func (r *Resolver) remember(postcode string, res Result, definitive bool) {
	r.mu.Lock()
	r.cache[postcode] = res

	if !res.OK {
		r.metrics.Unresolved++
	}
	r.mu.Unlock()

	if definitive && r.store != nil {
		if err := r.store.Save(postcode, res); err != nil {
			log.Printf("Persisting geocode cache entry %q: %s", postcode, err)
		}
	}
}

// Resolve resolves a single postcode. It returns a LookupError when the
// postcode is malformed, unknown, or the service failed; either way the
// negative outcome is cached so the lookup is not repeated this run.
func (r *Resolver) Resolve(ctx context.Context, postcode string) (Point, error) {
	canonical, ok := NormalizePostcode(postcode)
	if !ok {
		return Point{}, &LookupError{
			Type:    ErrorTypeInvalidRequest,
			Message: fmt.Sprintf("postcode %q is not a valid UK postcode", postcode),
		}
	}

	if res, hit := r.cached(canonical); hit {
		if !res.OK {
			return Point{}, &LookupError{
				Type:    ErrorTypeNotFound,
				Message: fmt.Sprintf("postcode %q could not be resolved", canonical),
			}
		}

		return res.Point, nil
	}

	r.mu.Lock()
	r.metrics.ExternalCalls++
	r.mu.Unlock()

	point, err := r.client.Lookup(ctx, canonical)
	if err != nil {
		// Unknown postcodes are definitive; service failures are
		// unresolved for this run only.
		r.remember(canonical, Result{}, IsNotFound(err))

		return Point{}, err
	}

	r.remember(canonical, Result{Point: point, OK: true}, true)

	return point, nil
}

// ResolveMany resolves a set of postcodes, deduplicating, skipping
// already-cached entries, and batching the remainder through the bulk
// endpoint in chunks of MaxBulkLookup. It never fails: a bulk call
// error marks its chunk unresolved for this run. The returned map is
// keyed by canonical postcode; malformed inputs are absent.
func (r *Resolver) ResolveMany(ctx context.Context, postcodes []string) map[string]Result {
	ret := make(map[string]Result, len(postcodes))

	var pending []string

	for _, pc := range postcodes {
		canonical, ok := NormalizePostcode(pc)
		if !ok {
			continue
		}

		if _, seen := ret[canonical]; seen {
			continue
		}

		if res, hit := r.cached(canonical); hit {
			ret[canonical] = res

			continue
		}

		ret[canonical] = Result{}
		pending = append(pending, canonical)
	}

	for start := 0; start < len(pending); start += MaxBulkLookup {
		end := min(start+MaxBulkLookup, len(pending))
		chunk := pending[start:end]

		r.mu.Lock()
		r.metrics.ExternalCalls++
		r.mu.Unlock()

		found, err := r.client.BulkLookup(ctx, chunk)
		if err != nil {
			log.Printf("Bulk postcode lookup failed for %d codes: %s", len(chunk), err)

			for _, pc := range chunk {
				r.remember(pc, Result{}, false)
			}

			continue
		}

		for _, pc := range chunk {
			point, answered := found[pc]
			if !answered || point == nil {
				r.remember(pc, Result{}, true)

				continue
			}

			res := Result{Point: *point, OK: true}
			r.remember(pc, res, true)
			ret[pc] = res
		}
	}

	return ret
}
