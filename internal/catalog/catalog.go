// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog keeps the set of selectable themes in memory and
// refreshes it when the backing source reports a change.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"storybook/internal/models"
)

// Source lists every theme, active or not.
type Source interface {
	ListThemes(ctx context.Context) ([]models.Theme, error)
}

// Catalog is a snapshot of the active, valid themes ordered by sort order.
// It is safe for concurrent use.
type Catalog struct {
	src Source

	mu     sync.RWMutex
	themes []models.Theme
	byID   map[string]models.Theme
}

// New creates an empty catalog. Call Refresh before serving lookups.
func New(src Source) *Catalog {
	return &Catalog{src: src, byID: map[string]models.Theme{}}
}

// Refresh re-reads the source and swaps in the new snapshot. Inactive
// themes are skipped, and so are themes that fail validation (they are
// logged). On error the previous snapshot stays in place.
func (c *Catalog) Refresh(ctx context.Context) error {
	all, err := c.src.ListThemes(ctx)
	if err != nil {
		return fmt.Errorf("list themes: %w", err)
	}

	active := make([]models.Theme, 0, len(all))
	byID := make(map[string]models.Theme, len(all))
	for _, t := range all {
		if !t.IsActive {
			continue
		}
		if err := t.Validate(); err != nil {
			slog.Warn("skipping invalid theme", "theme_id", t.ID, "error", err)
			continue
		}
		active = append(active, t)
		byID[t.ID] = t
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].SortOrder != active[j].SortOrder {
			return active[i].SortOrder < active[j].SortOrder
		}
		return active[i].ID < active[j].ID
	})

	c.mu.Lock()
	c.themes = active
	c.byID = byID
	c.mu.Unlock()

	slog.Debug("theme catalog refreshed", "active", len(active))
	return nil
}

// Active returns the active themes in display order.
func (c *Catalog) Active() []models.Theme {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Theme, len(c.themes))
	copy(out, c.themes)
	return out
}

// Lookup returns an active theme by id. Unknown and inactive ids fail
// with models.ErrInvalidTheme.
func (c *Catalog) Lookup(id string) (models.Theme, error) {
	c.mu.RLock()
	t, ok := c.byID[id]
	c.mu.RUnlock()
	if !ok {
		return models.Theme{}, fmt.Errorf("%w: %q", models.ErrInvalidTheme, id)
	}
	return t, nil
}

// Run refreshes the catalog every time the notifier fires. It blocks
// until ctx is cancelled or the notifier stops.
func (c *Catalog) Run(ctx context.Context, n Notifier) error {
	return n.Watch(ctx, func() {
		if err := c.Refresh(ctx); err != nil {
			slog.Error("theme catalog refresh failed", "error", err)
		}
	})
}

// Fallback serves from Primary and switches to Secondary when Primary
// fails or has no themes at all.
type Fallback struct {
	Primary   Source
	Secondary Source
}

// ListThemes implements Source.
func (f Fallback) ListThemes(ctx context.Context) ([]models.Theme, error) {
	themes, err := f.Primary.ListThemes(ctx)
	if err == nil && len(themes) > 0 {
		return themes, nil
	}
	if err != nil {
		slog.Warn("primary theme source failed, using fallback", "error", err)
	}
	return f.Secondary.ListThemes(ctx)
}
