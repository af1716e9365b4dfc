// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"storybook/internal/middleware"
	"storybook/internal/models"
)

// GetDraft returns the saved form state, or an empty draft.
func (a *API) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := a.deps.Drafts.Get(r.Context(), middleware.ClientID(r.Context()))
	if errors.Is(err, models.ErrNotFound) {
		writeJSON(w, http.StatusOK, models.Draft{})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// SaveDraft replaces the saved form state.
func (a *API) SaveDraft(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDraftBody)
	var in draftInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, r, models.NewValidationError("body", "Invalid JSON body."))
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	d := in.draft()
	d.UpdatedAt = time.Now().UTC()
	if err := a.deps.Drafts.Save(r.Context(), middleware.ClientID(r.Context()), d); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DeleteDraft discards the saved form state.
func (a *API) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := a.deps.Drafts.Delete(r.Context(), middleware.ClientID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
