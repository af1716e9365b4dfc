// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package stories holds the built-in story templates, one per theme, and
// the personalizer that turns a template into a child's own story.
// Templates are YAML files embedded at compile time.
package stories

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"storybook/internal/models"
)

//go:embed data/*.yaml
var storyFS embed.FS

// Library maps theme ids to their story templates.
type Library struct {
	stories map[string]models.Story
}

// Load parses every embedded story template. Each story must have
// contiguous page numbers; a malformed template fails the whole load.
func Load() (*Library, error) {
	return loadFS(storyFS, "data")
}

// MustLoad is Load for program start-up and tests.
func MustLoad() *Library {
	lib, err := Load()
	if err != nil {
		panic(err)
	}
	return lib
}

func loadFS(fsys fs.FS, dir string) (*Library, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read story dir: %w", err)
	}

	lib := &Library{stories: make(map[string]models.Story)}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read story %s: %w", e.Name(), err)
		}

		var s models.Story
		if err := yaml.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("parse story %s: %w", e.Name(), err)
		}
		if s.ThemeID == "" {
			s.ThemeID = strings.TrimSuffix(e.Name(), ".yaml")
		}
		if err := models.ValidateSequence(s.Pages); err != nil {
			return nil, fmt.Errorf("story %s: %w", s.ThemeID, err)
		}
		if _, dup := lib.stories[s.ThemeID]; dup {
			return nil, fmt.Errorf("story %s defined twice", s.ThemeID)
		}
		lib.stories[s.ThemeID] = s
	}
	return lib, nil
}

// Lookup returns the story for a theme id. The returned value shares no
// page slice with the library.
func (l *Library) Lookup(themeID string) (models.Story, error) {
	s, ok := l.stories[themeID]
	if !ok {
		return models.Story{}, fmt.Errorf("story for theme %q: %w", themeID, models.ErrNotFound)
	}
	s.Pages = append([]models.Page(nil), s.Pages...)
	return s, nil
}

// ThemeIDs returns the ids of every story, sorted.
func (l *Library) ThemeIDs() []string {
	ids := make([]string, 0, len(l.stories))
	for id := range l.stories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
