// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils holds text normalization helpers used when comparing place names.
package textutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LowerASCIIFolding normalizes a string by removing accents, lowercasing, and trimming spaces.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// EqualFold reports whether a and b are the same name once accents, case,
// surrounding spaces and inner whitespace runs are ignored.
func EqualFold(a, b string) bool {
	return collapse(LowerASCIIFolding(a)) == collapse(LowerASCIIFolding(b))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
