// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package geo

import "strings"

// UK postcodes are an outward code of 2 to 4 characters followed by a
// 3-character inward code. Stripped of spaces that gives 5 to 7
// characters, all letters and digits.
const (
	minStrippedLen = 5
	maxStrippedLen = 7
	inwardLen      = 3
)

// NormalizePostcode canonicalizes a UK postcode: uppercase, with a
// single space before the 3-character inward code. The second return
// value is false when the input does not pass the basic shape check.
func NormalizePostcode(s string) (string, bool) {
	var sb strings.Builder

	for _, r := range strings.ToUpper(s) {
		switch {
		case r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '\t':
			// collapsed
		default:
			return "", false
		}
	}

	stripped := sb.String()
	if len(stripped) < minStrippedLen || len(stripped) > maxStrippedLen {
		return "", false
	}

	outward := stripped[:len(stripped)-inwardLen]

	return outward + " " + stripped[len(stripped)-inwardLen:], true
}
