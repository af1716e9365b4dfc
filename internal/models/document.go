// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"time"
)

// PageKind distinguishes the cover from story pages.
type PageKind string

const (
	PageCover PageKind = "cover"
	PageStory PageKind = "story"
)

// PageSizeA5 is the trim size every storybook page uses.
const PageSizeA5 = "A5"

// RGB is an 8-bit colour.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// PageStyle is the decorative styling of a page, derived from a palette.
type PageStyle struct {
	Background RGB `json:"background"`
	Border     RGB `json:"border"`
	Frame      RGB `json:"frame"`
	Text       RGB `json:"text"`
	Accent     RGB `json:"accent"`
}

// PageImage references an embedded photo by data URL.
type PageImage struct {
	Ref   string     `json:"ref"`
	Style PhotoStyle `json:"style"`
}

// Footer is the "n / total" marker printed on story pages.
type Footer struct {
	Number int `json:"number"`
	Total  int `json:"total"`
}

func (f Footer) String() string {
	return fmt.Sprintf("%d / %d", f.Number, f.Total)
}

// DocPage is one laid-out page of a ComposedDocument.
type DocPage struct {
	Kind     PageKind   `json:"kind"`
	Size     string     `json:"size"`
	Style    PageStyle  `json:"style"`
	Heading  string     `json:"heading,omitempty"`
	Title    string     `json:"title,omitempty"`
	Subtitle string     `json:"subtitle,omitempty"`
	Body     string     `json:"body,omitempty"`
	Emoji    string     `json:"emoji,omitempty"`
	Image    *PageImage `json:"image,omitempty"`
	Glyph    bool       `json:"glyph,omitempty"`
	ShareURL string     `json:"share_url,omitempty"`
	Footer   *Footer    `json:"footer,omitempty"`
}

// ComposedDocument is the fully laid-out, pre-serialization storybook.
type ComposedDocument struct {
	Title     string    `json:"title"`
	Subject   string    `json:"subject"`
	Author    string    `json:"author"`
	Keywords  string    `json:"keywords"`
	CreatedAt time.Time `json:"created_at"`
	Pages     []DocPage `json:"pages"`
}
