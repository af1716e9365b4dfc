// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"storybook/internal/models"
)

// progressChannelPrefix prefixes the per-client progress channel.
const progressChannelPrefix = "progress:"

// ProgressChannel returns the pub/sub channel for an owner's events.
func ProgressChannel(owner string) string {
	return progressChannelPrefix + owner
}

// ProgressBus publishes generation progress over Valkey pub/sub so any
// server instance holding the client's websocket can forward it.
type ProgressBus struct {
	client *redis.Client
}

// NewProgressBus creates a progress bus.
func NewProgressBus(client *redis.Client) *ProgressBus {
	return &ProgressBus{client: client}
}

// Publish sends an event to the owner's channel. Failures are logged
// only; progress delivery is best effort.
func (pb *ProgressBus) Publish(ctx context.Context, owner string, ev models.ProgressEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("marshal progress event", "error", err)
		return
	}
	if err := pb.client.Publish(ctx, ProgressChannel(owner), data).Err(); err != nil {
		slog.Warn("publish progress event", "owner", owner, "generation_id", ev.GenerationID, "error", err)
	}
}

// Subscribe delivers the owner's events to fn until ctx is done.
func (pb *ProgressBus) Subscribe(ctx context.Context, owner string, fn func(models.ProgressEvent)) error {
	sub := pb.client.Subscribe(ctx, ProgressChannel(owner))
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe progress: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev models.ProgressEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Warn("dropping malformed progress event", "owner", owner, "error", err)
				continue
			}
			fn(ev)
		}
	}
}
