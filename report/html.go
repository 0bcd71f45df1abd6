// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package report renders per-user match reports and delivers them by
// email or file.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/oweaver/comptrack/match"
)

const emailTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 640px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #1a6e3c;">Upcoming competitions near {{.User.Postcode}}</h2>
    <p>Hi {{.User.Name}},</p>
{{- if .Matches}}
    <p>{{len .Matches}} licensed competition{{if gt (len .Matches) 1}}s{{end}} within {{miles .User.MaxDistanceMiles}} miles of home:</p>
    <table style="border-collapse: collapse; width: 100%;">
      <tr style="background-color: #f4f4f4;">
        <th style="text-align: left; padding: 6px;">Date</th>
        <th style="text-align: left; padding: 6px;">Competition</th>
        <th style="text-align: left; padding: 6px;">Venue</th>
        <th style="text-align: right; padding: 6px;">Distance</th>
      </tr>
{{- range .Matches}}
      <tr>
        <td style="padding: 6px; border-top: 1px solid #eee;">{{.Competition.Date.Format "Mon 2 Jan 2006"}}</td>
        <td style="padding: 6px; border-top: 1px solid #eee;">{{.Competition.Name}}</td>
        <td style="padding: 6px; border-top: 1px solid #eee;">{{.Competition.Venue}}</td>
        <td style="padding: 6px; border-top: 1px solid #eee; text-align: right;">{{miles .DistanceMiles}} mi</td>
      </tr>
{{- end}}
    </table>
{{- with .Stats}}
    <p style="color: #666;">Nearest {{miles .NearestMiles}} mi, farthest {{miles .FarthestMiles}} mi, average {{miles .MeanMiles}} mi.</p>
{{- end}}
{{- else}}
    <p>No licensed competitions within {{miles .User.MaxDistanceMiles}} miles of home this time.</p>
{{- end}}
{{- if .SkippedVenues}}
    <p style="color: #999; font-size: 12px;">{{.SkippedVenues}} competition{{if gt .SkippedVenues 1}}s{{end}} could not be placed on the map and {{if gt .SkippedVenues 1}}were{{else}}was{{end}} left out.</p>
{{- end}}
    <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
    <p style="color: #999; font-size: 12px;">This email was generated automatically from the licensed competition feed.</p>
  </div>
</body>
</html>
`

// Renderer turns match reports into HTML email bodies.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer creates a renderer with the built-in email template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("email").Funcs(template.FuncMap{
		"miles": func(v float64) string {
			return fmt.Sprintf("%.1f", v)
		},
	}).Parse(emailTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing email template: %w", err)
	}

	return &Renderer{tmpl: tmpl}, nil
}

// Subject builds the email subject line for a report.
func (r *Renderer) Subject(report *match.Report) string {
	if len(report.Matches) == 0 {
		return fmt.Sprintf("No competitions within %.0f miles of %s",
			report.User.MaxDistanceMiles, report.User.Postcode)
	}

	return fmt.Sprintf("%d competitions within %.0f miles of %s",
		len(report.Matches), report.User.MaxDistanceMiles, report.User.Postcode)
}

// Render builds the HTML body for a report. Failed reports have no
// email; callers must not pass them.
func (r *Renderer) Render(report *match.Report) (string, error) {
	if report.Failed() {
		return "", fmt.Errorf("report for %q failed: %s", report.User.Name, report.Failure.Message)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, report); err != nil {
		return "", fmt.Errorf("rendering report for %q: %w", report.User.Name, err)
	}

	return buf.String(), nil
}

// SaveEmail writes the rendered report to dir as an .html file and
// returns its path. Used for dry runs and debugging delivery.
func (r *Renderer) SaveEmail(dir string, report *match.Report) (string, error) {
	body, err := r.Render(report)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	path := filepath.Join(dir, slugify(report.User.Name)+".html")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		return "", fmt.Errorf("saving report for %q: %w", report.User.Name, err)
	}

	return path, nil
}

// slugify makes a user name safe as a file name.
func slugify(s string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}

	return strings.Trim(b.String(), "-")
}
