// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"storybook/internal/models"
)

const (
	generationKeyPrefix = "generations:"

	// DefaultGenerationTTL bounds how long tracking survives inactivity.
	DefaultGenerationTTL = 24 * time.Hour
)

// updateGenerationScript replaces a hash field only if it still exists,
// so a dismissed generation is not tracked again.
var updateGenerationScript = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
redis.call("EXPIRE", KEYS[1], ARGV[3])
return 1
`)

// GenerationStore tracks each client's remote generations in a Valkey
// hash keyed by generation id.
type GenerationStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGenerationStore creates a generation tracker.
func NewGenerationStore(client *redis.Client, ttl time.Duration) *GenerationStore {
	if ttl == 0 {
		ttl = DefaultGenerationTTL
	}
	return &GenerationStore{client: client, ttl: ttl}
}

// Save creates or replaces a tracked generation.
func (gs *GenerationStore) Save(ctx context.Context, g models.ActiveGeneration) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal generation: %w", err)
	}
	k := generationKeyPrefix + g.Owner
	pipe := gs.client.TxPipeline()
	pipe.HSet(ctx, k, g.ID, data)
	pipe.Expire(ctx, k, gs.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save generation %s: %w", g.ID, err)
	}
	return nil
}

// Update replaces a generation that is still tracked. It returns
// models.ErrNotFound when the generation was deleted or cleared.
func (gs *GenerationStore) Update(ctx context.Context, g models.ActiveGeneration) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal generation: %w", err)
	}
	k := generationKeyPrefix + g.Owner
	n, err := updateGenerationScript.Run(ctx, gs.client, []string{k}, g.ID, data, int64(gs.ttl/time.Second)).Int()
	if err != nil {
		return fmt.Errorf("update generation %s: %w", g.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("generation %s: %w", g.ID, models.ErrNotFound)
	}
	return nil
}

// Get returns one tracked generation.
func (gs *GenerationStore) Get(ctx context.Context, owner, id string) (models.ActiveGeneration, error) {
	raw, err := gs.client.HGet(ctx, generationKeyPrefix+owner, id).Result()
	if err == redis.Nil {
		return models.ActiveGeneration{}, fmt.Errorf("generation %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.ActiveGeneration{}, fmt.Errorf("get generation %s: %w", id, err)
	}
	return decodeGeneration(owner, raw)
}

// List returns the owner's tracked generations, oldest first.
func (gs *GenerationStore) List(ctx context.Context, owner string) ([]models.ActiveGeneration, error) {
	all, err := gs.client.HGetAll(ctx, generationKeyPrefix+owner).Result()
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	out := make([]models.ActiveGeneration, 0, len(all))
	for id, raw := range all {
		g, err := decodeGeneration(owner, raw)
		if err != nil {
			slog.Warn("dropping unreadable generation", "owner", owner, "id", id, "error", err)
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete stops tracking a generation.
func (gs *GenerationStore) Delete(ctx context.Context, owner, id string) error {
	n, err := gs.client.HDel(ctx, generationKeyPrefix+owner, id).Result()
	if err != nil {
		return fmt.Errorf("delete generation %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("generation %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// Clear drops all of the owner's tracked generations.
func (gs *GenerationStore) Clear(ctx context.Context, owner string) error {
	if err := gs.client.Del(ctx, generationKeyPrefix+owner).Err(); err != nil {
		return fmt.Errorf("clear generations: %w", err)
	}
	return nil
}

func decodeGeneration(owner, raw string) (models.ActiveGeneration, error) {
	var g models.ActiveGeneration
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return g, fmt.Errorf("decode generation: %w", err)
	}
	// Owner is not serialized.
	g.Owner = owner
	return g, nil
}
