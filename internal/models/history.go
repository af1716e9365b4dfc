// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source records which generation path produced a history item.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// HistoryItem is the persisted record of a completed generation.
// A non-nil DeletedAt means the item sits in the trash.
type HistoryItem struct {
	ID                  string     `json:"id"`
	Owner               string     `json:"-"`
	ChildName           string     `json:"child_name"`
	ThemeID             string     `json:"theme_id"`
	ThemeName           string     `json:"theme_name"`
	ThemeEmoji          string     `json:"theme_emoji"`
	Source              Source     `json:"source"`
	ArtifactRef         string     `json:"artifact_ref"`
	ThumbnailRef        string     `json:"thumbnail_ref,omitempty"`
	ArtifactDownloadURL string     `json:"artifact_download_url,omitempty"`
	CoverDownloadURL    string     `json:"cover_download_url,omitempty"`
	ArtifactKey         string     `json:"-"`
	ThumbnailKey        string     `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty"`
}

// StoredKeys returns the object keys of locally stored blobs.
func (h *HistoryItem) StoredKeys() []string {
	var keys []string
	for _, k := range []string{h.ArtifactKey, h.ThumbnailKey} {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// InTrash reports whether the item has been soft-deleted.
func (h *HistoryItem) InTrash() bool {
	return h.DeletedAt != nil
}

// NewHistoryID builds an id from the generation time plus a random suffix.
func NewHistoryID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}
