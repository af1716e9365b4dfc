// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"storybook/internal/models"
	"storybook/internal/stories"
)

// previewName stands in for the child's name in previews without one.
const previewName = "your child"

// ListThemes lists the active themes in display order.
func (a *API) ListThemes(w http.ResponseWriter, r *http.Request) {
	themes := a.deps.Themes.Active()
	if themes == nil {
		themes = []models.Theme{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"themes": themes})
}

// StoryPreview returns a theme's story personalized with ?name=.
func (a *API) StoryPreview(w http.ResponseWriter, r *http.Request) {
	theme, err := a.deps.Themes.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	story, err := a.deps.Stories.Lookup(theme.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	name := strings.Join(strings.Fields(r.URL.Query().Get("name")), " ")
	if name == "" {
		name = previewName
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"theme": theme,
		"story": stories.Personalize(story, name),
	})
}
