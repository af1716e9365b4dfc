// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package filename builds safe download filenames for storybook artifacts.
package filename

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength bounds the base name, extension excluded.
const MaxLength = 100

// Default replaces names that sanitize to nothing.
const Default = "storybook"

var (
	// whitespace runs become a single underscore.
	whitespace = regexp.MustCompile(`\s+`)
	// disallowed matches anything outside the safe filename set.
	disallowed = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	// multipleUnderscores collapses consecutive underscores into one.
	multipleUnderscores = regexp.MustCompile(`_{2,}`)
)

// stripMarks decomposes accented letters and drops the combining marks,
// so "Zoë" keeps its letters as "Zoe".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Sanitize restricts name to [A-Za-z0-9._-] and truncates the part
// before the extension to MaxLength characters.
// Example: "Mia's Dragon Quest.pdf" → "Mias_Dragon_Quest.pdf"
func Sanitize(name string) string {
	ext := path.Ext(name)
	if ext != "" && disallowed.MatchString(ext[1:]) {
		ext = ""
	}
	base := clean(strings.TrimSuffix(name, ext))
	if len(base) > MaxLength {
		base = strings.Trim(base[:MaxLength], "_.-")
	}
	if base == "" {
		base = Default
	}
	return base + strings.ToLower(ext)
}

func clean(s string) string {
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	s = whitespace.ReplaceAllString(strings.TrimSpace(s), "_")
	s = disallowed.ReplaceAllString(s, "")
	s = multipleUnderscores.ReplaceAllString(s, "_")
	return strings.Trim(s, "_.-")
}

// Storybook returns the download name of a rendered storybook.
func Storybook(childName, themeName string) string {
	return Sanitize(childName + "_" + themeName + "_storybook.pdf")
}

// Cover returns the download name of a storybook's cover image.
func Cover(childName, themeName, ext string) string {
	if ext == "" {
		ext = ".png"
	}
	return Sanitize(childName + "_" + themeName + "_cover" + ext)
}
