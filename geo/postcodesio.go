// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.postcodes.io"

// MaxBulkLookup is the largest postcode list postcodes.io accepts in a
// single bulk request.
const MaxBulkLookup = 100

// Client is an HTTP client for the postcodes.io lookup service.
// The service is free and keyless.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a postcodes.io client. An empty baseURL selects the
// public service.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type postcodeData struct {
	Postcode  string  `json:"postcode"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type lookupResponse struct {
	Status int           `json:"status"`
	Result *postcodeData `json:"result"`
}

type bulkEntry struct {
	Query  string        `json:"query"`
	Result *postcodeData `json:"result"`
}

type bulkResponse struct {
	Status int         `json:"status"`
	Result []bulkEntry `json:"result"`
}

// Lookup resolves a single postcode to a coordinate. Postcodes the
// service does not know return an ErrorTypeNotFound LookupError.
func (c *Client) Lookup(ctx context.Context, postcode string) (Point, error) {
	stripped := strings.ReplaceAll(postcode, " ", "")

	reqURL := fmt.Sprintf("%s/postcodes/%s", c.baseURL, url.PathEscape(stripped))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Point{}, fmt.Errorf("building lookup request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Point{}, &LookupError{Type: ErrorTypeNetwork, Message: "lookup request failed", Err: err}
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Point{}, classifyHTTPError(resp.StatusCode)
	}

	var parsed lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Point{}, &LookupError{Type: ErrorTypeNetwork, Message: "decoding lookup response", Err: err}
	}

	if parsed.Result == nil {
		return Point{}, &LookupError{Type: ErrorTypeNotFound, Message: fmt.Sprintf("no data for postcode %q", postcode)}
	}

	return Point{Lat: parsed.Result.Latitude, Lng: parsed.Result.Longitude}, nil
}

// BulkLookup resolves up to MaxBulkLookup postcodes in one request.
// The result map is keyed by the postcodes as passed in; entries the
// service could not resolve map to nil. Callers with larger sets must
// chunk; the Resolver does.
func (c *Client) BulkLookup(ctx context.Context, postcodes []string) (map[string]*Point, error) {
	if len(postcodes) == 0 {
		return map[string]*Point{}, nil
	}

	if len(postcodes) > MaxBulkLookup {
		return nil, &LookupError{
			Type:    ErrorTypeInvalidRequest,
			Message: fmt.Sprintf("bulk lookup limited to %d postcodes, got %d", MaxBulkLookup, len(postcodes)),
		}
	}

	payload, err := json.Marshal(map[string][]string{"postcodes": postcodes})
	if err != nil {
		return nil, fmt.Errorf("encoding bulk request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/postcodes",
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("building bulk request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &LookupError{Type: ErrorTypeNetwork, Message: "bulk lookup request failed", Err: err}
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(resp.StatusCode)
	}

	var parsed bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &LookupError{Type: ErrorTypeNetwork, Message: "decoding bulk response", Err: err}
	}

	ret := make(map[string]*Point, len(postcodes))

	for _, entry := range parsed.Result {
		if entry.Result == nil {
			ret[entry.Query] = nil

			continue
		}

		ret[entry.Query] = &Point{
			Lat: entry.Result.Latitude,
			Lng: entry.Result.Longitude,
		}
	}

	return ret, nil
}
