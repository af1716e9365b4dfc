// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package history keeps each client's completed storybooks with a
// retention cap and a soft-delete trash.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"storybook/internal/models"
)

// DefaultLimit is how many active items a client keeps.
const DefaultLimit = 20

// Repository persists history items. List returns newest first.
// Methods addressing a single item return models.ErrNotFound when the
// owner has no such item.
type Repository interface {
	Insert(ctx context.Context, item models.HistoryItem) error
	Get(ctx context.Context, owner, id string) (models.HistoryItem, error)
	List(ctx context.Context, owner string, trashed bool) ([]models.HistoryItem, error)
	SetDeletedAt(ctx context.Context, owner, id string, at *time.Time) error
	Delete(ctx context.Context, owner string, ids ...string) error
}

// BlobDeleter removes stored artifacts of purged items.
type BlobDeleter interface {
	Delete(ctx context.Context, keys ...string) error
}

// Service applies the history lifecycle on top of a Repository.
type Service struct {
	repo  Repository
	blobs BlobDeleter
	limit int
	now   func() time.Time
}

// NewService creates a Service. blobs may be nil.
func NewService(repo Repository, blobs BlobDeleter, limit int) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{repo: repo, blobs: blobs, limit: limit, now: time.Now}
}

// Add stores a new item and evicts the owner's oldest active items
// beyond the limit. Evicted items are erased, not trashed.
func (s *Service) Add(ctx context.Context, item models.HistoryItem) error {
	if item.ID == "" || item.Owner == "" {
		return fmt.Errorf("history item requires id and owner")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now().UTC()
	}
	item.DeletedAt = nil
	if err := s.repo.Insert(ctx, item); err != nil {
		return fmt.Errorf("insert history item: %w", err)
	}
	return s.evict(ctx, item.Owner, item.ID)
}

// evict erases the oldest active items beyond the limit. The item named
// keep is never chosen.
func (s *Service) evict(ctx context.Context, owner, keep string) error {
	active, err := s.repo.List(ctx, owner, false)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	if len(active) <= s.limit {
		return nil
	}
	excess := len(active) - s.limit
	var overflow []models.HistoryItem
	for i := len(active) - 1; i >= 0 && len(overflow) < excess; i-- {
		if active[i].ID != keep {
			overflow = append(overflow, active[i])
		}
	}
	if err := s.erase(ctx, owner, overflow); err != nil {
		return fmt.Errorf("evict history: %w", err)
	}
	slog.Debug("history items evicted", "owner", owner, "count", len(overflow))
	return nil
}

// List returns the owner's active items, newest first.
func (s *Service) List(ctx context.Context, owner string) ([]models.HistoryItem, error) {
	return s.repo.List(ctx, owner, false)
}

// Trash returns the owner's soft-deleted items, newest first.
func (s *Service) Trash(ctx context.Context, owner string) ([]models.HistoryItem, error) {
	return s.repo.List(ctx, owner, true)
}

// Get returns one item, active or trashed.
func (s *Service) Get(ctx context.Context, owner, id string) (models.HistoryItem, error) {
	return s.repo.Get(ctx, owner, id)
}

// Remove moves an active item to the trash.
func (s *Service) Remove(ctx context.Context, owner, id string) error {
	item, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	if item.InTrash() {
		return nil
	}
	at := s.now().UTC()
	return s.repo.SetDeletedAt(ctx, owner, id, &at)
}

// Restore moves a trashed item back to the active set unchanged. If the
// active set is already full the oldest other active item is evicted.
func (s *Service) Restore(ctx context.Context, owner, id string) error {
	item, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	if !item.InTrash() {
		return nil
	}
	if err := s.repo.SetDeletedAt(ctx, owner, id, nil); err != nil {
		return err
	}
	return s.evict(ctx, owner, id)
}

// Purge erases a trashed item permanently. Active items must be removed
// first.
func (s *Service) Purge(ctx context.Context, owner, id string) error {
	item, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	if !item.InTrash() {
		return fmt.Errorf("%w: item %s is not in the trash", models.ErrValidation, id)
	}
	return s.erase(ctx, owner, []models.HistoryItem{item})
}

// EmptyTrash erases every trashed item and returns how many were removed.
func (s *Service) EmptyTrash(ctx context.Context, owner string) (int, error) {
	trashed, err := s.repo.List(ctx, owner, true)
	if err != nil {
		return 0, fmt.Errorf("list trash: %w", err)
	}
	if err := s.erase(ctx, owner, trashed); err != nil {
		return 0, err
	}
	return len(trashed), nil
}

func (s *Service) erase(ctx context.Context, owner string, items []models.HistoryItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, 0, len(items))
	var keys []string
	for i := range items {
		ids = append(ids, items[i].ID)
		keys = append(keys, items[i].StoredKeys()...)
	}
	if err := s.repo.Delete(ctx, owner, ids...); err != nil {
		return fmt.Errorf("delete history items: %w", err)
	}
	if s.blobs != nil && len(keys) > 0 {
		if err := s.blobs.Delete(ctx, keys...); err != nil {
			// The records are gone; orphaned blobs expire or are swept later.
			slog.Warn("failed to delete history blobs", "owner", owner, "keys", len(keys), "error", err)
		}
	}
	return nil
}
