// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storybook/internal/models"
)

const (
	draftKeyPrefix = "draft:"

	// DefaultDraftTTL is how long an untouched form draft is kept.
	DefaultDraftTTL = 7 * 24 * time.Hour
)

// DraftStore persists each client's generate-form inputs so they survive
// a page reload.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftStore creates a draft store.
func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	if ttl == 0 {
		ttl = DefaultDraftTTL
	}
	return &DraftStore{client: client, ttl: ttl}
}

// Get returns the owner's draft, or models.ErrNotFound.
func (ds *DraftStore) Get(ctx context.Context, owner string) (models.Draft, error) {
	raw, err := ds.client.Get(ctx, draftKeyPrefix+owner).Bytes()
	if err == redis.Nil {
		return models.Draft{}, fmt.Errorf("draft: %w", models.ErrNotFound)
	}
	if err != nil {
		return models.Draft{}, fmt.Errorf("get draft: %w", err)
	}
	var d models.Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return models.Draft{}, fmt.Errorf("decode draft: %w", err)
	}
	return d, nil
}

// Save replaces the owner's draft and refreshes its TTL.
func (ds *DraftStore) Save(ctx context.Context, owner string, d models.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	if err := ds.client.Set(ctx, draftKeyPrefix+owner, data, ds.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Delete discards the owner's draft.
func (ds *DraftStore) Delete(ctx context.Context, owner string) error {
	if err := ds.client.Del(ctx, draftKeyPrefix+owner).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
