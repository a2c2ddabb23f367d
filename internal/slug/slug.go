// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings
// and the collision candidates used when a slug is already taken.
package slug

import (
	"regexp"
	"strings"

	"github.com/gosimple/unidecode"
)

var (
	// nonAlphanumeric matches runs of anything that isn't a lowercase letter or digit.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// validSlug matches lowercase words joined by single hyphens.
	validSlug = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// reserved slugs name fixed routes under /api/posts/ and would shadow or
// be shadowed by a post addressed by slug.
var reserved = map[string]bool{
	"published": true,
}

// Generate creates a URL-friendly slug from the given string.
// Non-ASCII letters are transliterated first, so "Café Noël" becomes "cafe-noel".
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(unidecode.Unidecode(s))
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// IsValid reports whether s is already in slug form.
func IsValid(s string) bool {
	return validSlug.MatchString(s)
}

// IsReserved reports whether s is claimed by a fixed route and may not be
// used as a post slug.
func IsReserved(s string) bool {
	return reserved[s]
}
