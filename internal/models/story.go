// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "fmt"

// NamePlaceholder is the token story templates use for the child's name.
const NamePlaceholder = "{name}"

// PhotoStyle selects how a page lays out the child's photo.
type PhotoStyle string

const (
	PhotoCircular    PhotoStyle = "circular"
	PhotoRectangular PhotoStyle = "rectangular"
)

// Page is one templated story page.
type Page struct {
	Number     int        `json:"number" yaml:"number"`
	Text       string     `json:"text" yaml:"text"`
	HasPhoto   bool       `json:"has_photo" yaml:"has_photo"`
	PhotoStyle PhotoStyle `json:"photo_style,omitempty" yaml:"photo_style,omitempty"`
}

// Style returns the page's photo style, defaulting to rectangular.
func (p Page) Style() PhotoStyle {
	if p.PhotoStyle == PhotoCircular {
		return PhotoCircular
	}
	return PhotoRectangular
}

// Story is the unpersonalized template for one theme.
type Story struct {
	ThemeID  string `json:"theme_id" yaml:"theme_id"`
	Title    string `json:"title" yaml:"title"`
	Subtitle string `json:"subtitle" yaml:"subtitle"`
	Pages    []Page `json:"pages" yaml:"pages"`
}

// PersonalizedStory is a Story whose placeholders were replaced with a
// child's name.
type PersonalizedStory struct {
	ThemeID   string `json:"theme_id"`
	ChildName string `json:"child_name"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
	Pages     []Page `json:"pages"`
}

// ValidateSequence checks that page numbers run 1..len(pages) with no gaps
// or duplicates. Violations wrap ErrComposition.
func ValidateSequence(pages []Page) error {
	if len(pages) == 0 {
		return fmt.Errorf("%w: story has no pages", ErrComposition)
	}
	for i, p := range pages {
		if p.Number != i+1 {
			return fmt.Errorf("%w: page %d has sequence number %d", ErrComposition, i+1, p.Number)
		}
	}
	return nil
}
