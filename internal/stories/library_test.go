package stories

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"storybook/internal/models"
)

func TestLoadBuiltinStories(t *testing.T) {
	lib, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []string{"dragon_quest", "enchanted_forest", "ocean_explorer", "space_adventure"}
	got := lib.ThemeIDs()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("theme ids: got %v, want %v", got, want)
	}
}

// Every story must number its pages 1..n with no gaps or duplicates.
func TestBuiltinStoriesSequencing(t *testing.T) {
	lib := MustLoad()
	for _, id := range lib.ThemeIDs() {
		t.Run(id, func(t *testing.T) {
			s, err := lib.Lookup(id)
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			for i, p := range s.Pages {
				if p.Number != i+1 {
					t.Errorf("page %d numbered %d", i+1, p.Number)
				}
				if strings.TrimSpace(p.Text) == "" {
					t.Errorf("page %d has no text", p.Number)
				}
			}
			if !strings.Contains(s.Title, models.NamePlaceholder) {
				t.Errorf("title %q has no name placeholder", s.Title)
			}
		})
	}
}

func TestDragonQuestHas24Pages(t *testing.T) {
	s, err := MustLoad().Lookup("dragon_quest")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(s.Pages) != 24 {
		t.Errorf("pages: got %d, want 24", len(s.Pages))
	}
}

func TestLookupUnknownTheme(t *testing.T) {
	_, err := MustLoad().Lookup("pirate_cove")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	lib := MustLoad()
	s, _ := lib.Lookup("dragon_quest")
	s.Pages[0].Text = "changed"

	again, _ := lib.Lookup("dragon_quest")
	if again.Pages[0].Text == "changed" {
		t.Error("Lookup must not expose the library's page slice")
	}
}

func TestLoadRejectsSequenceGap(t *testing.T) {
	fsys := fstest.MapFS{
		"data/broken.yaml": {Data: []byte(`
theme_id: broken
title: "{name}"
subtitle: "x"
pages:
  - number: 1
    text: "a"
  - number: 3
    text: "b"
`)},
	}
	_, err := loadFS(fsys, "data")
	if !errors.Is(err, models.ErrComposition) {
		t.Errorf("expected ErrComposition, got %v", err)
	}
}

func TestLoadRejectsDuplicateTheme(t *testing.T) {
	story := []byte("theme_id: twin\ntitle: t\nsubtitle: s\npages:\n  - number: 1\n    text: a\n")
	fsys := fstest.MapFS{
		"data/a.yaml": {Data: story},
		"data/b.yaml": {Data: story},
	}
	if _, err := loadFS(fsys, "data"); err == nil {
		t.Error("expected error for duplicate theme id")
	}
}

func TestLoadDefaultsThemeIDToFilename(t *testing.T) {
	fsys := fstest.MapFS{
		"data/meadow.yaml": {Data: []byte("title: t\nsubtitle: s\npages:\n  - number: 1\n    text: a\n")},
	}
	lib, err := loadFS(fsys, "data")
	if err != nil {
		t.Fatalf("loadFS: %v", err)
	}
	if _, err := lib.Lookup("meadow"); err != nil {
		t.Errorf("expected story keyed by filename: %v", err)
	}
}
