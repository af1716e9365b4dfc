// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the storybook JSON API. Every handler is
// scoped to the anonymous client id resolved by middleware.Identify.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"storybook/internal/generation"
	"storybook/internal/models"
)

// ThemeCatalog lists and resolves active themes.
type ThemeCatalog interface {
	Active() []models.Theme
	Lookup(id string) (models.Theme, error)
}

// StoryLookup resolves the story template of a theme.
type StoryLookup interface {
	Lookup(themeID string) (models.Story, error)
}

// Generator runs local and remote generations.
type Generator interface {
	Generate(ctx context.Context, owner string, req generation.Request) (models.HistoryItem, error)
	StartRemote(ctx context.Context, owner string, req generation.Request) (models.ActiveGeneration, error)
	List(ctx context.Context, owner string) ([]models.ActiveGeneration, error)
	Dismiss(ctx context.Context, owner, id string) error
	Reset(ctx context.Context, owner string) error
	Current(owner string) generation.Snapshot
}

// History manages a client's completed storybooks.
type History interface {
	List(ctx context.Context, owner string) ([]models.HistoryItem, error)
	Trash(ctx context.Context, owner string) ([]models.HistoryItem, error)
	Get(ctx context.Context, owner, id string) (models.HistoryItem, error)
	Remove(ctx context.Context, owner, id string) error
	Restore(ctx context.Context, owner, id string) error
	Purge(ctx context.Context, owner, id string) error
	EmptyTrash(ctx context.Context, owner string) (int, error)
}

// Drafts persists generate-form state.
type Drafts interface {
	Get(ctx context.Context, owner string) (models.Draft, error)
	Save(ctx context.Context, owner string, d models.Draft) error
	Delete(ctx context.Context, owner string) error
}

// Artifacts reads stored files.
type Artifacts interface {
	Get(ctx context.Context, key string) ([]byte, string, error)
}

// Presigner issues time-limited download URLs for stored files.
type Presigner interface {
	PresignedURL(ctx context.Context, key, filename string, expires time.Duration) (string, error)
}

// presignExpiry is the lifetime of download redirects.
const presignExpiry = 15 * time.Minute

// Deps are the collaborators of the API. Presigner may be nil, in which
// case stored files are streamed from Artifacts.
type Deps struct {
	Themes    ThemeCatalog
	Stories   StoryLookup
	Generator Generator
	History   History
	Drafts    Drafts
	Artifacts Artifacts
	Presigner Presigner
}

// API groups the storybook endpoints.
type API struct {
	deps Deps
}

// NewAPI creates the API handlers.
func NewAPI(deps Deps) *API {
	return &API{deps: deps}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

// errorBody is the shape of every error response. Fields lists
// per-field validation failures.
type errorBody struct {
	Error  string              `json:"error"`
	Fields []models.FieldError `json:"fields,omitempty"`
}

// writeError maps err onto a status and a message the user may see.
// Server faults are logged and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	body := errorBody{Error: http.StatusText(status)}

	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr) && len(verr.Errors) > 0:
		body.Fields = verr.Errors
		body.Error = verr.Errors[0].Message
	case errors.Is(err, models.ErrInvalidTheme):
		body.Error = "That theme is not available. Please choose another one."
	case errors.Is(err, models.ErrNotFound):
		body.Error = "Not found."
	case errors.Is(err, models.ErrBusy):
		body.Error = "A storybook is already being created. Please wait for it to finish."
	case errors.Is(err, models.ErrRemote):
		body.Error = generation.RemoteFailureMessage
	case errors.Is(err, models.ErrProcessing):
		body.Error = "We couldn't read that photo. Please try a different image."
	}

	if status >= 500 {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, body)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInvalidTheme),
		errors.Is(err, models.ErrInvalidPhoto):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrProcessing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, models.ErrRemote):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
