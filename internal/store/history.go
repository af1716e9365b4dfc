// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storybook/internal/models"
)

// HistoryStore persists generated storybook records.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore creates a new HistoryStore with the given database connection.
func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// historyColumns lists the columns selected in history queries.
const historyColumns = `id, owner, child_name, theme_id, theme_name, theme_emoji,
	source, artifact_ref, thumbnail_ref, artifact_download_url, cover_download_url,
	artifact_key, thumbnail_key, created_at, deleted_at`

// scanHistory scans a history row from the result set.
func scanHistory(scanner interface{ Scan(...any) error }) (*models.HistoryItem, error) {
	var h models.HistoryItem
	var deletedAt sql.NullTime
	err := scanner.Scan(
		&h.ID, &h.Owner, &h.ChildName, &h.ThemeID, &h.ThemeName, &h.ThemeEmoji,
		&h.Source, &h.ArtifactRef, &h.ThumbnailRef, &h.ArtifactDownloadURL, &h.CoverDownloadURL,
		&h.ArtifactKey, &h.ThumbnailKey, &h.CreatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		h.DeletedAt = &t
	}
	return &h, nil
}

// Insert stores a new history record.
func (s *HistoryStore) Insert(ctx context.Context, h models.HistoryItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history_items (id, owner, child_name, theme_id, theme_name, theme_emoji,
			source, artifact_ref, thumbnail_ref, artifact_download_url, cover_download_url,
			artifact_key, thumbnail_key, created_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		h.ID, h.Owner, h.ChildName, h.ThemeID, h.ThemeName, h.ThemeEmoji,
		h.Source, h.ArtifactRef, h.ThumbnailRef, h.ArtifactDownloadURL, h.CoverDownloadURL,
		h.ArtifactKey, h.ThumbnailKey, h.CreatedAt, h.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert history item: %w", err)
	}
	return nil
}

// Get retrieves one of the owner's records.
func (s *HistoryStore) Get(ctx context.Context, owner, id string) (models.HistoryItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM history_items WHERE owner = $1 AND id = $2`, owner, id)
	h, err := scanHistory(row)
	if err == sql.ErrNoRows {
		return models.HistoryItem{}, fmt.Errorf("history item %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.HistoryItem{}, fmt.Errorf("get history item: %w", err)
	}
	return *h, nil
}

// List returns the owner's active or trashed records, newest first.
func (s *HistoryStore) List(ctx context.Context, owner string, trashed bool) ([]models.HistoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+historyColumns+`
		FROM history_items
		WHERE owner = $1 AND (deleted_at IS NOT NULL) = $2
		ORDER BY created_at DESC, id DESC
	`, owner, trashed)
	if err != nil {
		return nil, fmt.Errorf("list history items: %w", err)
	}
	defer rows.Close()

	var items []models.HistoryItem
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history item: %w", err)
		}
		items = append(items, *h)
	}
	return items, rows.Err()
}

// SetDeletedAt moves a record into (non-nil at) or out of (nil) the trash.
func (s *HistoryStore) SetDeletedAt(ctx context.Context, owner, id string, at *time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE history_items SET deleted_at = $1 WHERE owner = $2 AND id = $3`, at, owner, id)
	if err != nil {
		return fmt.Errorf("update history item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("history item %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// Delete permanently removes the owner's records with the given ids.
func (s *HistoryStore) Delete(ctx context.Context, owner string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM history_items WHERE owner = $1 AND id = ANY($2)`, owner, ids)
	if err != nil {
		return fmt.Errorf("delete history items: %w", err)
	}
	return nil
}
