// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package document lays out a personalized story as a paginated storybook
// and serializes it to PDF. Assembly is a pure transform; rendering embeds
// every image inline so the resulting artifact is self-contained.
package document

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"storybook/internal/models"
)

// Options carries the inputs of a layout that are not part of the story.
type Options struct {
	// ShareURL, when set, is encoded as a QR code on the last story page.
	ShareURL string
	// CreatedAt is stamped into the document metadata.
	CreatedAt time.Time
}

// Assemble composes a cover page followed by one page per story page.
// photo may be nil, in which case no page carries an image. The theme
// must already be valid; an unparsable palette or a broken page sequence
// fails with models.ErrComposition.
func Assemble(story models.PersonalizedStory, theme models.Theme, photo *models.ProcessedPhoto, opts Options) (*models.ComposedDocument, error) {
	if err := models.ValidateSequence(story.Pages); err != nil {
		return nil, err
	}
	style, err := StyleFromPalette(theme.Colors)
	if err != nil {
		return nil, err
	}

	total := len(story.Pages)
	pages := make([]models.DocPage, 0, total+1)

	cover := models.DocPage{
		Kind:     models.PageCover,
		Size:     models.PageSizeA5,
		Style:    style,
		Heading:  theme.Name,
		Title:    story.Title,
		Subtitle: story.Subtitle,
		Emoji:    theme.Emoji,
		Glyph:    true,
	}
	if photo != nil && photo.Original != "" {
		cover.Image = &models.PageImage{Ref: photo.Original, Style: models.PhotoRectangular}
	}
	pages = append(pages, cover)

	for i, p := range story.Pages {
		page := models.DocPage{
			Kind:    models.PageStory,
			Size:    models.PageSizeA5,
			Style:   style,
			Heading: fmt.Sprintf("Chapter %d", p.Number),
			Body:    p.Text,
			Footer:  &models.Footer{Number: p.Number, Total: total},
		}
		if p.HasPhoto && photo != nil {
			page.Image = pageImage(p.Style(), photo)
		}
		if i == total-1 {
			page.ShareURL = opts.ShareURL
		}
		pages = append(pages, page)
	}

	return &models.ComposedDocument{
		Title:     story.Title,
		Subject:   fmt.Sprintf("A %s storybook for %s", theme.Name, story.ChildName),
		Author:    "Storybook",
		Keywords:  strings.Join([]string{"storybook", story.ChildName, theme.Name}, ", "),
		CreatedAt: opts.CreatedAt.UTC(),
		Pages:     pages,
	}, nil
}

func pageImage(style models.PhotoStyle, photo *models.ProcessedPhoto) *models.PageImage {
	ref := photo.Original
	if style == models.PhotoCircular && photo.Circular != "" {
		ref = photo.Circular
	}
	if ref == "" {
		return nil
	}
	return &models.PageImage{Ref: ref, Style: style}
}

// StyleFromPalette derives page colours from a theme palette. The text
// colour is the primary colour darkened towards black for legibility.
func StyleFromPalette(p models.Palette) (models.PageStyle, error) {
	var s models.PageStyle
	var err error
	if s.Border, err = ParseHex(p.Primary); err != nil {
		return s, err
	}
	if s.Frame, err = ParseHex(p.Secondary); err != nil {
		return s, err
	}
	if s.Accent, err = ParseHex(p.Accent); err != nil {
		return s, err
	}
	if s.Background, err = ParseHex(p.Background); err != nil {
		return s, err
	}
	s.Text = shade(s.Border, 0.45)
	return s, nil
}

// ParseHex parses a "#RRGGBB" colour.
func ParseHex(hex string) (models.RGB, error) {
	if len(hex) != 7 || hex[0] != '#' {
		return models.RGB{}, fmt.Errorf("%w: invalid colour %q", models.ErrComposition, hex)
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return models.RGB{}, fmt.Errorf("%w: invalid colour %q", models.ErrComposition, hex)
	}
	return models.RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// shade scales a colour towards black by factor (0 keeps it, 1 is black).
func shade(c models.RGB, factor float64) models.RGB {
	k := 1 - factor
	return models.RGB{
		R: uint8(float64(c.R) * k),
		G: uint8(float64(c.G) * k),
		B: uint8(float64(c.B) * k),
	}
}
