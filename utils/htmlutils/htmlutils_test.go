// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package htmlutils

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func asHTMLNode(resp *http.Response) (*html.Node, error) {
	r, err := AsReader(resp)
	if err != nil {
		return nil, err
	}

	return AsNode(r)
}

func TestText(t *testing.T) {
	tests := []struct {
		expected string
		input    string
	}{
		{"foo bar", "<div><pre>foo</pre><span>bar</span>"},
		{"Licensed competitions", "<h1>  Licensed\n competitions  </h1>"},
		{"", "<div><img src=\"x\"/></div>"},
	}

	for _, test := range tests {
		n, err := html.Parse(strings.NewReader(test.input))
		if err != nil {
			t.Fatalf("parsing HTML `%s': %s", test.input, err)
		}

		sb := strings.Builder{}
		Text(n, &sb)

		if got := sb.String(); got != test.expected {
			t.Errorf("`%s': expected `%v' but got `%v'", test.input, test.expected, got)
		}
	}
}

func TestAsReaderWithNonOKStatus(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusNotFound,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("")),
	}

	if _, err := asHTMLNode(resp); err == nil {
		t.Fatal("expected error for non-200 response")
	} else if !strings.Contains(err.Error(), "status 404") {
		t.Errorf("unexpected error: %s", err)
	}
}

func TestAsReaderWithWrongMediaType(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/pdf"}},
		Body:       io.NopCloser(strings.NewReader("")),
	}

	if _, err := asHTMLNode(resp); err == nil {
		t.Fatal("expected error for non-HTML media type")
	}
}

func TestAsReaderDecodesLegacyCharset(t *testing.T) {
	// "Atlética" in ISO-8859-1: é is 0xE9.
	body := []byte("<html><body><p>Atl\xe9tica</p></body></html>")

	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/html; charset=iso-8859-1"}},
		Body:       io.NopCloser(strings.NewReader(string(body))),
	}

	n, err := asHTMLNode(resp)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	sb := strings.Builder{}
	Text(n, &sb)

	if got := sb.String(); got != "Atlética" {
		t.Errorf("expected `Atlética' but got `%v'", got)
	}
}
