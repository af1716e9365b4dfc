// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package document

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"

	"storybook/internal/imaging"
	"storybook/internal/models"
	"storybook/internal/stories"
)

var testTheme = models.Theme{
	ID:    "dragon_quest",
	Name:  "Dragon Quest",
	Emoji: "🐉",
	Colors: models.Palette{
		Primary:    "#B91C1C",
		Secondary:  "#F59E0B",
		Accent:     "#FDE68A",
		Background: "#FFF7ED",
	},
	IsActive: true,
}

var testTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func dragonStory(t *testing.T) models.PersonalizedStory {
	t.Helper()
	s, err := stories.MustLoad().Lookup("dragon_quest")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	return stories.Personalize(s, "Mia")
}

func testPhoto(t *testing.T) *models.ProcessedPhoto {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	photo, err := imaging.Process(buf.Bytes(), "image/png", nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	return photo
}

func TestAssemble(t *testing.T) {
	story := dragonStory(t)
	photo := testPhoto(t)

	doc, err := Assemble(story, testTheme, photo, Options{CreatedAt: testTime, ShareURL: "https://example.com/s/1"})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if len(doc.Pages) != 25 {
		t.Fatalf("pages = %d, want 25", len(doc.Pages))
	}
	cover := doc.Pages[0]
	if cover.Kind != models.PageCover || cover.Footer != nil {
		t.Errorf("cover = %+v", cover)
	}
	if cover.Title != story.Title || cover.Emoji != "🐉" || !cover.Glyph {
		t.Errorf("cover content = %q %q %v", cover.Title, cover.Emoji, cover.Glyph)
	}
	if cover.Image == nil || cover.Image.Ref != photo.Original {
		t.Error("cover should carry the original photo")
	}

	last := doc.Pages[24]
	if last.Footer == nil || last.Footer.String() != "24 / 24" {
		t.Errorf("last footer = %v, want 24 / 24", last.Footer)
	}
	if last.ShareURL == "" {
		t.Error("last page should carry the share url")
	}

	for i, p := range doc.Pages[1:] {
		src := story.Pages[i]
		if want := fmt.Sprintf("Chapter %d", src.Number); p.Heading != want {
			t.Errorf("page %d heading = %q", i+1, p.Heading)
		}
		if p.Size != models.PageSizeA5 {
			t.Errorf("page %d size = %q", i+1, p.Size)
		}
		if (p.Image != nil) != src.HasPhoto {
			t.Errorf("page %d image = %v, has_photo %v", i+1, p.Image != nil, src.HasPhoto)
		}
		if p.Image != nil {
			want := photo.Original
			if src.Style() == models.PhotoCircular {
				want = photo.Circular
			}
			if p.Image.Ref != want {
				t.Errorf("page %d uses the wrong photo variant for style %s", i+1, src.Style())
			}
		}
		if i < 23 && p.ShareURL != "" {
			t.Errorf("page %d unexpectedly carries the share url", i+1)
		}
	}

	if !strings.Contains(doc.Subject, "Mia") || !strings.Contains(doc.Keywords, "Dragon Quest") {
		t.Errorf("metadata = %q / %q", doc.Subject, doc.Keywords)
	}
}

func TestAssembleWithoutPhoto(t *testing.T) {
	doc, err := Assemble(dragonStory(t), testTheme, nil, Options{CreatedAt: testTime})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	for i, p := range doc.Pages {
		if p.Image != nil {
			t.Errorf("page %d has an image without a photo", i)
		}
	}
}

func TestAssembleRejectsBrokenSequence(t *testing.T) {
	story := dragonStory(t)
	story.Pages[3].Number = 99
	_, err := Assemble(story, testTheme, nil, Options{})
	if !errors.Is(err, models.ErrComposition) {
		t.Errorf("error = %v, want ErrComposition", err)
	}
}

func TestAssembleRejectsBadPalette(t *testing.T) {
	theme := testTheme
	theme.Colors.Accent = "gold"
	_, err := Assemble(dragonStory(t), theme, nil, Options{})
	if !errors.Is(err, models.ErrComposition) {
		t.Errorf("error = %v, want ErrComposition", err)
	}
}

func TestStyleFromPalette(t *testing.T) {
	s, err := StyleFromPalette(testTheme.Colors)
	if err != nil {
		t.Fatalf("StyleFromPalette: %v", err)
	}
	if s.Border != (models.RGB{R: 0xB9, G: 0x1C, B: 0x1C}) {
		t.Errorf("border = %+v", s.Border)
	}
	if s.Background != (models.RGB{R: 0xFF, G: 0xF7, B: 0xED}) {
		t.Errorf("background = %+v", s.Background)
	}
	if s.Text.R >= s.Border.R {
		t.Errorf("text %+v should be darker than border %+v", s.Text, s.Border)
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    models.RGB
		wantErr bool
	}{
		{"#000000", models.RGB{}, false},
		{"#ffFFff", models.RGB{R: 255, G: 255, B: 255}, false},
		{"#102030", models.RGB{R: 0x10, G: 0x20, B: 0x30}, false},
		{"102030", models.RGB{}, true},
		{"#12345", models.RGB{}, true},
		{"#zzzzzz", models.RGB{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHex(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	doc, err := Assemble(dragonStory(t), testTheme, testPhoto(t), Options{CreatedAt: testTime, ShareURL: "https://example.com/s/1"})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	out, err := Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output does not start with a PDF header")
	}

	reader, err := pdf.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if n := reader.NumPage(); n != 25 {
		t.Fatalf("NumPage = %d, want 25", n)
	}
	text, err := reader.Page(25).GetPlainText(nil)
	if err != nil {
		t.Fatalf("GetPlainText: %v", err)
	}
	if !strings.Contains(strings.ReplaceAll(text, " ", ""), "24/24") {
		t.Errorf("last page text %q lacks footer 24 / 24", text)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	photo := testPhoto(t)
	render := func() []byte {
		doc, err := Assemble(dragonStory(t), testTheme, photo, Options{CreatedAt: testTime})
		if err != nil {
			t.Fatalf("Assemble: %v", err)
		}
		out, err := Render(doc)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		return out
	}
	if !bytes.Equal(render(), render()) {
		t.Error("identical documents rendered to different bytes")
	}
}

func TestRenderFailsOnBadImage(t *testing.T) {
	doc, err := Assemble(dragonStory(t), testTheme, &models.ProcessedPhoto{
		Original: "data:image/jpeg;base64,bm90IGEganBlZw==",
		Circular: "data:image/png;base64,bm90IGEgcG5n",
	}, Options{CreatedAt: testTime})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	out, err := Render(doc)
	if out != nil {
		t.Error("expected no partial output")
	}
	if !errors.Is(err, models.ErrComposition) {
		t.Errorf("error = %v, want ErrComposition", err)
	}
}

func TestRenderShrinksLongText(t *testing.T) {
	doc, err := Assemble(dragonStory(t), testTheme, testPhoto(t), Options{CreatedAt: testTime})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	idx := -1
	for i, p := range doc.Pages[1:] {
		if p.Image != nil {
			idx = i + 1
			break
		}
	}
	if idx < 0 {
		t.Fatal("story has no photo page")
	}
	doc.Pages[idx].Body = strings.Repeat("The dragon flew high. ", 35) + "Farewell"

	out, err := Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	reader, err := pdf.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	text, err := reader.Page(idx + 1).GetPlainText(nil)
	if err != nil {
		t.Fatalf("GetPlainText: %v", err)
	}
	if !strings.Contains(strings.ReplaceAll(text, " ", ""), "Farewell") {
		t.Errorf("last words of a long page were lost: %q", text)
	}
}

func TestRenderFailsOnOverflowingText(t *testing.T) {
	doc, err := Assemble(dragonStory(t), testTheme, nil, Options{CreatedAt: testTime})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	doc.Pages[3].Body = strings.Repeat("Once upon a time there was a very long page. ", 200)

	out, err := Render(doc)
	if out != nil {
		t.Error("expected no partial output")
	}
	if !errors.Is(err, models.ErrComposition) {
		t.Errorf("error = %v, want ErrComposition", err)
	}
}

func TestPDFText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Mia and the dragon", "Mia and the dragon"},
		{"Zoë", "Zo\xeb"},
		{"Ștefan", "Stefan"},
		{"Dragon Quest 🐉", "Dragon Quest"},
		{"Fire 🔥 and ice", "Fire and ice"},
	}
	for _, tt := range tests {
		if got := pdfText(tt.in); got != tt.want {
			t.Errorf("pdfText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
