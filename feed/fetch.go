// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/oweaver/comptrack/utils/htmlutils"
	"github.com/oweaver/comptrack/utils/httputils"
)

// FetchOptions configures the feed downloader.
type FetchOptions struct {
	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool
}

// Fetcher downloads the competition feed over HTTP. When pointed at an
// HTML page it discovers the spreadsheet link in the page body.
type Fetcher struct {
	client  *http.Client
	options *FetchOptions
}

// NewFetcher creates a fetcher with the given options.
func NewFetcher(options *FetchOptions) *Fetcher {
	if options == nil {
		options = &FetchOptions{}
	}

	var httpLogWriter io.Writer
	if options.EnableHTTPTrace {
		httpLogWriter = os.Stderr
	}

	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		MaxConnsPerHost:       4,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	loggingTransport := &httputils.LoggingRoundTripper{
		Writer:    httpLogWriter,
		DumpBody:  options.EnableHTTPBodyTrace,
		Transport: transport,
	}

	userAgent := "comptrack/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	headerTransport := &httputils.AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "*/*",
		},
		Transport: loggingTransport,
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   60 * time.Second,
			Transport: headerTransport,
		},
		options: options,
	}
}

// Fetch downloads the feed behind rawURL into dir and returns the path
// of the saved file. An HTML response is treated as an index page and
// scanned for a spreadsheet link.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("building feed request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("feed server returned status %d", resp.StatusCode)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "text/html" {
		body, err := htmlutils.AsReader(resp)
		if err != nil {
			return "", fmt.Errorf("reading feed index page: %w", err)
		}

		doc, err := htmlutils.AsNode(body)
		if err != nil {
			return "", fmt.Errorf("parsing feed index page: %w", err)
		}

		base, err := url.Parse(rawURL)
		if err != nil {
			return "", fmt.Errorf("parsing feed url: %w", err)
		}

		link, err := discoverFeedLink(doc, base)
		if err != nil {
			return "", err
		}

		return f.Fetch(ctx, link, dir)
	}

	return save(resp.Body, dir)
}

// discoverFeedLink walks an HTML document for an anchor pointing at a
// spreadsheet, preferring CSV over xlsx.
func discoverFeedLink(doc *html.Node, base *url.URL) (string, error) {
	var csvLink, xlsxLink string

	var visit func(n *html.Node)

	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "a") {
			for _, attr := range n.Attr {
				if !strings.EqualFold(attr.Key, "href") {
					continue
				}

				ref, err := url.Parse(attr.Val)
				if err != nil {
					continue
				}

				resolved := base.ResolveReference(ref)

				switch strings.ToLower(filepath.Ext(resolved.Path)) {
				case ".csv":
					if csvLink == "" {
						csvLink = resolved.String()
					}
				case ".xlsx", ".xls":
					if xlsxLink == "" {
						xlsxLink = resolved.String()
					}
				}
			}
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}

	visit(doc)

	if csvLink != "" {
		return csvLink, nil
	}

	if xlsxLink != "" {
		return xlsxLink, nil
	}

	return "", errors.New("no spreadsheet link found in feed index page")
}

// save writes the feed body to a timestamped file under dir.
func save(body io.Reader, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating feed directory: %w", err)
	}

	name := fmt.Sprintf("competitions-%s.csv", time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("creating feed file: %w", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		return "", errors.Join(
			f.Close(),
			fmt.Errorf("writing feed file: %w", err),
		)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing feed file: %w", err)
	}

	return path, nil
}
