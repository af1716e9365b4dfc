// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storybook/internal/middleware"
	"storybook/internal/models"
)

// Generate renders a storybook locally and answers with its history item.
func (a *API) Generate(w http.ResponseWriter, r *http.Request) {
	req, err := parseGenerateForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := a.deps.Generator.Generate(r.Context(), middleware.ClientID(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// GenerateRemote hands the request to the remote service and answers
// with the tracked generation right away.
func (a *API) GenerateRemote(w http.ResponseWriter, r *http.Request) {
	req, err := parseGenerateForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	gen, err := a.deps.Generator.StartRemote(r.Context(), middleware.ClientID(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, gen)
}

// CurrentGeneration reports the local session state.
func (a *API) CurrentGeneration(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.deps.Generator.Current(middleware.ClientID(r.Context())))
}

// ResetGeneration returns the session to idle and clears tracked
// remote generations.
func (a *API) ResetGeneration(w http.ResponseWriter, r *http.Request) {
	owner := middleware.ClientID(r.Context())
	if err := a.deps.Generator.Reset(r.Context(), owner); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.deps.Generator.Current(owner))
}

// ListGenerations returns the tracked remote generations.
func (a *API) ListGenerations(w http.ResponseWriter, r *http.Request) {
	gens, err := a.deps.Generator.List(r.Context(), middleware.ClientID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if gens == nil {
		gens = []models.ActiveGeneration{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"generations": gens})
}

// DismissGeneration stops tracking a remote generation.
func (a *API) DismissGeneration(w http.ResponseWriter, r *http.Request) {
	err := a.deps.Generator.Dismiss(r.Context(), middleware.ClientID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
