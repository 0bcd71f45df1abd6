// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakePostcodesIO(t *testing.T, known map[string]Point) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("GET /postcodes/{postcode}", func(w http.ResponseWriter, r *http.Request) {
		pc := r.PathValue("postcode")

		canonical, ok := NormalizePostcode(pc)
		if !ok {
			w.WriteHeader(http.StatusNotFound)

			return
		}

		point, found := known[canonical]
		if !found {
			w.WriteHeader(http.StatusNotFound)

			return
		}

		_ = json.NewEncoder(w).Encode(lookupResponse{
			Status: 200,
			Result: &postcodeData{Postcode: canonical, Latitude: point.Lat, Longitude: point.Lng},
		})
	})

	mux.HandleFunc("POST /postcodes", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Postcodes []string `json:"postcodes"`
		}

		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := bulkResponse{Status: 200}

		for _, pc := range req.Postcodes {
			entry := bulkEntry{Query: pc}

			canonical, ok := NormalizePostcode(pc)
			if ok {
				if point, found := known[canonical]; found {
					entry.Result = &postcodeData{Postcode: canonical, Latitude: point.Lat, Longitude: point.Lng}
				}
			}

			resp.Result = append(resp.Result, entry)
		}

		_ = json.NewEncoder(w).Encode(resp)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestClientLookup(t *testing.T) {
	srv := newFakePostcodesIO(t, map[string]Point{
		"SW1A 1AA": westminster,
	})
	client := NewClient(srv.URL)

	point, err := client.Lookup(context.Background(), "sw1a 1aa")
	require.NoError(t, err)
	assert.InDelta(t, westminster.Lat, point.Lat, 1e-9)
	assert.InDelta(t, westminster.Lng, point.Lng, 1e-9)
}

func TestClientLookupNotFound(t *testing.T) {
	srv := newFakePostcodesIO(t, nil)
	client := NewClient(srv.URL)

	_, err := client.Lookup(context.Background(), "ZZ99 9ZZ")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsServiceFailure(err))
}

func TestClientLookupServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	_, err := client.Lookup(context.Background(), "SW1A 1AA")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.True(t, IsServiceFailure(err))
}

func TestClientBulkLookup(t *testing.T) {
	srv := newFakePostcodesIO(t, map[string]Point{
		"SW1A 1AA": westminster,
		"SE10 8QY": greenwich,
	})
	client := NewClient(srv.URL)

	got, err := client.BulkLookup(context.Background(), []string{"SW1A 1AA", "SE10 8QY", "ZZ99 9ZZ"})
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.NotNil(t, got["SW1A 1AA"])
	assert.InDelta(t, westminster.Lat, got["SW1A 1AA"].Lat, 1e-9)
	require.NotNil(t, got["SE10 8QY"])
	assert.Nil(t, got["ZZ99 9ZZ"])
}

func TestClientBulkLookupTooLarge(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")

	codes := make([]string, MaxBulkLookup+1)
	for i := range codes {
		codes[i] = "SW1A 1AA"
	}

	_, err := client.BulkLookup(context.Background(), codes)
	require.Error(t, err)

	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, ErrorTypeInvalidRequest, lookupErr.Type)
}

func TestClientBulkLookupEmpty(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")

	got, err := client.BulkLookup(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusBadRequest, ErrorTypeInvalidRequest},
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusBadGateway, ErrorTypeNetwork},
		{http.StatusServiceUnavailable, ErrorTypeNetwork},
		{http.StatusTeapot, ErrorTypeUnknown},
	}

	for _, tc := range tests {
		if got := classifyHTTPError(tc.status); got.Type != tc.want {
			t.Errorf("classifyHTTPError(%d).Type = %v, want %v", tc.status, got.Type, tc.want)
		}
	}
}
