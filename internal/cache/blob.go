// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"storybook/internal/models"
)

const (
	// blobKeyPrefix is the Valkey key prefix for stored artifacts.
	blobKeyPrefix = "artifact:"

	// DefaultBlobTTL is how long an artifact stays available.
	DefaultBlobTTL = 24 * time.Hour
)

// BlobCache stores binary artifacts in Valkey hashes. It keeps rendered
// storybooks and thumbnails when no object storage is configured; entries
// expire after the TTL and downloads then report the artifact as gone.
type BlobCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBlobCache creates a blob cache backed by the given Valkey client.
func NewBlobCache(client *redis.Client, ttl time.Duration) *BlobCache {
	if ttl == 0 {
		ttl = DefaultBlobTTL
	}
	return &BlobCache{client: client, ttl: ttl}
}

// Put stores data under key with the configured TTL.
func (bc *BlobCache) Put(ctx context.Context, key, contentType string, data []byte) error {
	k := blobKeyPrefix + key
	pipe := bc.client.TxPipeline()
	pipe.HSet(ctx, k, "content_type", contentType, "data", data)
	pipe.Expire(ctx, k, bc.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("blob cache put %s: %w", key, err)
	}
	slog.Debug("blob cached", "key", key, "bytes", len(data))
	return nil
}

// Get returns the data and content type stored under key, or
// models.ErrNotFound once it has expired.
func (bc *BlobCache) Get(ctx context.Context, key string) ([]byte, string, error) {
	vals, err := bc.client.HMGet(ctx, blobKeyPrefix+key, "content_type", "data").Result()
	if err != nil {
		return nil, "", fmt.Errorf("blob cache get %s: %w", key, err)
	}
	ct, _ := vals[0].(string)
	data, ok := vals[1].(string)
	if !ok {
		return nil, "", fmt.Errorf("artifact %s: %w", key, models.ErrNotFound)
	}
	return []byte(data), ct, nil
}

// Delete removes the given keys. Missing keys are ignored.
func (bc *BlobCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = blobKeyPrefix + k
	}
	if err := bc.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("blob cache delete: %w", err)
	}
	return nil
}
