// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLookupClient serves canned answers and records every external call.
type fakeLookupClient struct {
	known map[string]Point

	lookups    []string
	bulkSizes  []int
	failBulk   bool
	failSingle bool
}

func (f *fakeLookupClient) Lookup(_ context.Context, postcode string) (Point, error) {
	f.lookups = append(f.lookups, postcode)

	if f.failSingle {
		return Point{}, &LookupError{Type: ErrorTypeNetwork, Message: "service down"}
	}

	point, ok := f.known[postcode]
	if !ok {
		return Point{}, &LookupError{Type: ErrorTypeNotFound, Message: "not found"}
	}

	return point, nil
}

func (f *fakeLookupClient) BulkLookup(_ context.Context, postcodes []string) (map[string]*Point, error) {
	f.bulkSizes = append(f.bulkSizes, len(postcodes))

	if f.failBulk {
		return nil, &LookupError{Type: ErrorTypeNetwork, Message: "service down"}
	}

	ret := make(map[string]*Point, len(postcodes))

	for _, pc := range postcodes {
		if point, ok := f.known[pc]; ok {
			p := point
			ret[pc] = &p
		} else {
			ret[pc] = nil
		}
	}

	return ret, nil
}

func TestResolveCachesHits(t *testing.T) {
	client := &fakeLookupClient{known: map[string]Point{"SW1A 1AA": westminster}}
	resolver, err := NewResolver(client, nil)
	require.NoError(t, err)

	first, err := resolver.Resolve(context.Background(), "sw1a1aa")
	require.NoError(t, err)

	second, err := resolver.Resolve(context.Background(), "SW1A 1AA")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, client.lookups, 1, "second resolve must be a cache hit")

	metrics := resolver.Metrics()
	assert.Equal(t, 1, metrics.CacheHits)
	assert.Equal(t, 1, metrics.ExternalCalls)
}

func TestResolveCachesNegativeResults(t *testing.T) {
	client := &fakeLookupClient{}
	resolver, err := NewResolver(client, nil)
	require.NoError(t, err)

	for range 3 {
		_, err := resolver.Resolve(context.Background(), "ZZ99 9ZZ")
		require.Error(t, err)
	}

	assert.Len(t, client.lookups, 1, "failing postcode must be looked up once")
}

func TestResolveMalformedPostcode(t *testing.T) {
	client := &fakeLookupClient{}
	resolver, err := NewResolver(client, nil)
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), "not a postcode")
	require.Error(t, err)
	assert.Empty(t, client.lookups, "malformed postcode must not reach the service")
}

func TestResolveServiceFailureDoesNotPersist(t *testing.T) {
	client := &fakeLookupClient{failSingle: true}
	store := &memoryStore{entries: map[string]Result{}}
	resolver, err := NewResolver(client, store)
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), "SW1A 1AA")
	require.Error(t, err)

	assert.Empty(t, store.entries, "transient failures must not be persisted")

	// Still cached in memory for this run.
	_, err = resolver.Resolve(context.Background(), "SW1A 1AA")
	require.Error(t, err)
	assert.Len(t, client.lookups, 1)
}

func TestResolveManyDeduplicatesAndChunks(t *testing.T) {
	known := make(map[string]Point, 250)
	codes := make([]string, 0, 260)

	for i := range 250 {
		pc := fmt.Sprintf("AB%d %dAA", i/10, i%10)

		canonical, ok := NormalizePostcode(pc)
		require.True(t, ok)

		known[canonical] = Point{Lat: 50, Lng: float64(i) / 1000}
		codes = append(codes, pc)
	}

	// Duplicates must collapse before chunking.
	codes = append(codes, codes[:10]...)

	client := &fakeLookupClient{known: known}
	resolver, err := NewResolver(client, nil)
	require.NoError(t, err)

	got := resolver.ResolveMany(context.Background(), codes)

	distinct := make(map[string]bool)

	for _, pc := range codes {
		canonical, _ := NormalizePostcode(pc)
		distinct[canonical] = true
	}

	assert.Len(t, got, len(distinct))
	assert.Equal(t, []int{100, 100, len(distinct) - 200}, client.bulkSizes)

	for pc, res := range got {
		assert.True(t, res.OK, "postcode %s unresolved", pc)
	}
}

func TestResolveManySkipsCached(t *testing.T) {
	client := &fakeLookupClient{known: map[string]Point{
		"SW1A 1AA": westminster,
		"SE10 8QY": greenwich,
	}}
	resolver, err := NewResolver(client, nil)
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), "SW1A 1AA")
	require.NoError(t, err)

	got := resolver.ResolveMany(context.Background(), []string{"SW1A 1AA", "SE10 8QY"})
	require.Len(t, got, 2)
	assert.True(t, got["SW1A 1AA"].OK)
	assert.True(t, got["SE10 8QY"].OK)

	assert.Equal(t, []int{1}, client.bulkSizes, "cached postcode must not be re-requested")
}

func TestResolveManyBulkFailureDegrades(t *testing.T) {
	client := &fakeLookupClient{failBulk: true}
	resolver, err := NewResolver(client, nil)
	require.NoError(t, err)

	got := resolver.ResolveMany(context.Background(), []string{"SW1A 1AA", "SE10 8QY"})
	require.Len(t, got, 2)

	for pc, res := range got {
		assert.False(t, res.OK, "postcode %s should be unresolved", pc)
	}

	// The negative answers are for this run only, but within the run
	// they must not trigger another call.
	resolver.ResolveMany(context.Background(), []string{"SW1A 1AA"})
	assert.Len(t, client.bulkSizes, 1)
}

func TestResolveManyIgnoresMalformed(t *testing.T) {
	client := &fakeLookupClient{known: map[string]Point{"SW1A 1AA": westminster}}
	resolver, err := NewResolver(client, nil)
	require.NoError(t, err)

	got := resolver.ResolveMany(context.Background(), []string{"SW1A 1AA", "", "nope"})
	assert.Len(t, got, 1)
}

// memoryStore is an in-memory CacheStore for tests.
type memoryStore struct {
	entries map[string]Result
}

func (m *memoryStore) Load() (map[string]Result, error) {
	loaded := make(map[string]Result, len(m.entries))
	for k, v := range m.entries {
		loaded[k] = v
	}

	return loaded, nil
}

func (m *memoryStore) Save(postcode string, r Result) error {
	m.entries[postcode] = r

	return nil
}

func TestResolverWarmsFromStore(t *testing.T) {
	store := &memoryStore{entries: map[string]Result{
		"SW1A 1AA": {Point: westminster, OK: true},
	}}
	client := &fakeLookupClient{}

	resolver, err := NewResolver(client, store)
	require.NoError(t, err)

	point, err := resolver.Resolve(context.Background(), "SW1A 1AA")
	require.NoError(t, err)
	assert.Equal(t, westminster, point)
	assert.Empty(t, client.lookups, "warm cache entry must not hit the service")
}
