// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package slug

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	// MaxLength is the longest slug a post may carry.
	MaxLength = 260

	// MicroRetries is how many microsecond-suffixed candidates are tried
	// after the plain and second-suffixed ones collide.
	MicroRetries = 10

	// MaxAttempts is the total number of candidates Candidate can produce:
	// the base, one unix-seconds suffix, MicroRetries microsecond suffixes
	// and the final random fallback.
	MaxAttempts = 2 + MicroRetries + 1
)

// Generator produces slug candidates. The clock and random source are
// fields so tests can force collisions deterministically.
type Generator struct {
	Now  func() time.Time
	Intn func(n int) int
}

// NewGenerator returns a Generator backed by the wall clock and math/rand.
func NewGenerator() *Generator {
	return &Generator{Now: time.Now, Intn: rand.IntN}
}

// Base returns the slug derived from title, or "post-<unix>" when the
// title has nothing sluggable in it.
func (g *Generator) Base(title string) string {
	if base := Generate(title); base != "" {
		return base
	}
	return fmt.Sprintf("post-%d", g.Now().Unix())
}

// Candidate returns the slug to try on the given zero-based attempt:
//
//	0      base
//	1      base-<unix seconds>
//	2..11  base-<unix microseconds>
//	12+    base-<unix microseconds><4 random digits>
//
// Every candidate is cut to MaxLength by shortening the base.
func (g *Generator) Candidate(base string, attempt int) string {
	var suffix string
	switch {
	case attempt <= 0:
		return truncate(base, MaxLength)
	case attempt == 1:
		suffix = fmt.Sprintf("-%d", g.Now().Unix())
	case attempt <= 1+MicroRetries:
		suffix = fmt.Sprintf("-%d", g.Now().UnixMicro())
	default:
		suffix = fmt.Sprintf("-%d%04d", g.Now().UnixMicro(), g.Intn(10000))
	}
	return truncate(base, MaxLength-len(suffix)) + suffix
}

// truncate cuts s to at most n bytes without leaving a trailing hyphen.
// Slugs are ASCII, so byte length equals rune length.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) > n {
		s = s[:n]
	}
	return strings.TrimRight(s, "-")
}
