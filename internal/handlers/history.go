// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"storybook/internal/filename"
	"storybook/internal/middleware"
	"storybook/internal/models"
)

// ListHistory returns the active history, newest first.
func (a *API) ListHistory(w http.ResponseWriter, r *http.Request) {
	items, err := a.deps.History.List(r.Context(), middleware.ClientID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeItems(w, items)
}

// ListTrash returns the trashed history items.
func (a *API) ListTrash(w http.ResponseWriter, r *http.Request) {
	items, err := a.deps.History.Trash(r.Context(), middleware.ClientID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeItems(w, items)
}

func writeItems(w http.ResponseWriter, items []models.HistoryItem) {
	if items == nil {
		items = []models.HistoryItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// RemoveHistory moves an item to the trash.
func (a *API) RemoveHistory(w http.ResponseWriter, r *http.Request) {
	a.itemAction(w, r, a.deps.History.Remove)
}

// RestoreHistory brings an item back from the trash.
func (a *API) RestoreHistory(w http.ResponseWriter, r *http.Request) {
	a.itemAction(w, r, a.deps.History.Restore)
}

// PurgeHistory permanently deletes a trashed item and its files.
func (a *API) PurgeHistory(w http.ResponseWriter, r *http.Request) {
	a.itemAction(w, r, a.deps.History.Purge)
}

func (a *API) itemAction(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, owner, id string) error) {
	if err := fn(r.Context(), middleware.ClientID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EmptyTrash purges every trashed item.
func (a *API) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	n, err := a.deps.History.EmptyTrash(r.Context(), middleware.ClientID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"purged": n})
}

// Download serves a history item's storybook, or its cover with
// ?part=cover. Locally stored files are redirected to a presigned URL or
// streamed; remote files are redirected to their download link.
func (a *API) Download(w http.ResponseWriter, r *http.Request) {
	item, err := a.deps.History.Get(r.Context(), middleware.ClientID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var key, remote, name string
	switch part := r.URL.Query().Get("part"); part {
	case "", "book":
		key = item.ArtifactKey
		remote = firstHTTP(item.ArtifactDownloadURL, item.ArtifactRef)
		name = filename.Storybook(item.ChildName, item.ThemeName)
	case "cover":
		key = item.ThumbnailKey
		remote = firstHTTP(item.CoverDownloadURL, item.ThumbnailRef)
		ext := ".png"
		if key == "" {
			ext = imageExt(remote)
		}
		name = filename.Cover(item.ChildName, item.ThemeName, ext)
	default:
		writeError(w, r, models.NewValidationError("part", "part must be book or cover"))
		return
	}

	switch {
	case key != "":
		a.serveStored(w, r, key, name, "attachment")
	case remote != "":
		http.Redirect(w, r, remote, http.StatusFound)
	default:
		writeError(w, r, models.ErrNotFound)
	}
}

// Artifact serves a stored file inline by key.
func (a *API) Artifact(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if !validArtifactKey(key) {
		writeError(w, r, models.ErrNotFound)
		return
	}
	a.serveStored(w, r, key, path.Base(key), "inline")
}

func (a *API) serveStored(w http.ResponseWriter, r *http.Request, key, name, disposition string) {
	if a.deps.Presigner != nil && disposition == "attachment" {
		u, err := a.deps.Presigner.PresignedURL(r.Context(), key, name, presignExpiry)
		if err != nil {
			writeError(w, r, err)
			return
		}
		http.Redirect(w, r, u, http.StatusFound)
		return
	}

	data, contentType, err := a.deps.Artifacts.Get(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", disposition+`; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Debug("artifact write aborted", "key", key, "error", err)
	}
}

// validArtifactKey accepts only the key shapes the generator writes.
func validArtifactKey(key string) bool {
	dir, base := path.Split(key)
	if dir != "storybooks/" && dir != "thumbnails/" {
		return false
	}
	return base != "" && !strings.HasPrefix(base, ".") && filename.Sanitize(base) == base
}

func firstHTTP(candidates ...string) string {
	for _, c := range candidates {
		if strings.HasPrefix(c, "https://") || strings.HasPrefix(c, "http://") {
			return c
		}
	}
	return ""
}

// imageExt guesses a cover's extension from its URL path.
func imageExt(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ".png"
	}
	switch ext := strings.ToLower(path.Ext(u.Path)); ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return ext
	default:
		return ".png"
	}
}
