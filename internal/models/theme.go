// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	themeID  = regexp.MustCompile(`^[a-z0-9_]+$`)
)

// Palette is the four-colour scheme every theme must declare.
type Palette struct {
	Primary    string `json:"primary" yaml:"primary"`
	Secondary  string `json:"secondary" yaml:"secondary"`
	Accent     string `json:"accent" yaml:"accent"`
	Background string `json:"background" yaml:"background"`
}

// Validate requires all four colours as #RRGGBB.
func (p Palette) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Primary, validation.Required, validation.Match(hexColor)),
		validation.Field(&p.Secondary, validation.Required, validation.Match(hexColor)),
		validation.Field(&p.Accent, validation.Required, validation.Match(hexColor)),
		validation.Field(&p.Background, validation.Required, validation.Match(hexColor)),
	)
}

// Theme is a selectable visual and narrative skin. Its ID doubles as the
// key of the story it tells.
type Theme struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Emoji       string    `json:"emoji"`
	Description string    `json:"description"`
	Colors      Palette   `json:"colors"`
	IsActive    bool      `json:"is_active"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks that a theme is complete enough to reach the document
// assembler. The returned error unwraps to ErrValidation.
func (t Theme) Validate() error {
	err := validation.ValidateStruct(&t,
		validation.Field(&t.ID, validation.Required, validation.Length(1, 64), validation.Match(themeID)),
		validation.Field(&t.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&t.Colors),
	)
	return FromValidation(err)
}

// Snapshot returns the denormalized theme fields stored alongside
// generated documents.
func (t Theme) Snapshot() ThemeSnapshot {
	return ThemeSnapshot{ID: t.ID, Name: t.Name, Emoji: t.Emoji}
}

// ThemeSnapshot is a copy of a theme's identity taken at generation time.
type ThemeSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}
