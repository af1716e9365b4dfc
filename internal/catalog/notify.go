// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChangesChannel is the Valkey channel theme writers publish to.
const ChangesChannel = "themes:changed"

// DefaultPollInterval is used when no interval is configured.
const DefaultPollInterval = 30 * time.Second

// Notifier calls onChange whenever the theme source may have changed.
// Watch blocks until ctx is done.
type Notifier interface {
	Watch(ctx context.Context, onChange func()) error
}

// PollNotifier fires on a fixed interval.
type PollNotifier struct {
	Interval time.Duration
}

// Watch implements Notifier.
func (p PollNotifier) Watch(ctx context.Context, onChange func()) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			onChange()
		}
	}
}

// PubSubNotifier fires for each message on ChangesChannel.
type PubSubNotifier struct {
	client *redis.Client
}

// NewPubSubNotifier creates a notifier subscribed through client.
func NewPubSubNotifier(client *redis.Client) *PubSubNotifier {
	return &PubSubNotifier{client: client}
}

// Watch implements Notifier.
func (n *PubSubNotifier) Watch(ctx context.Context, onChange func()) error {
	sub := n.client.Subscribe(ctx, ChangesChannel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before reporting ready.
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", ChangesChannel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			onChange()
		}
	}
}

// Publish tells every subscribed catalog to refresh.
func Publish(ctx context.Context, client *redis.Client) error {
	if err := client.Publish(ctx, ChangesChannel, "refresh").Err(); err != nil {
		return fmt.Errorf("publish theme change: %w", err)
	}
	return nil
}

// SelectNotifier returns a pub/sub notifier when client is reachable and a
// poll notifier otherwise.
func SelectNotifier(ctx context.Context, client *redis.Client, interval time.Duration) Notifier {
	if client != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			slog.Info("theme catalog using pub/sub notifications", "channel", ChangesChannel)
			return NewPubSubNotifier(client)
		}
		slog.Warn("valkey unavailable, theme catalog falling back to polling", "error", err)
	}
	slog.Info("theme catalog polling", "interval", interval)
	return PollNotifier{Interval: interval}
}

// multiNotifier fans several notifiers into one.
type multiNotifier []Notifier

// Combine returns a Notifier that fires whenever any of ns fires. A
// notifier that stops with an error is logged; the others keep running.
func Combine(ns ...Notifier) Notifier {
	return multiNotifier(ns)
}

// Watch implements Notifier. Calls to onChange are serialized.
func (m multiNotifier) Watch(ctx context.Context, onChange func()) error {
	var mu sync.Mutex
	fire := func() {
		mu.Lock()
		defer mu.Unlock()
		onChange()
	}

	var wg sync.WaitGroup
	for _, n := range m {
		wg.Add(1)
		go func(n Notifier) {
			defer wg.Done()
			if err := n.Watch(ctx, fire); err != nil {
				slog.Error("theme change notifier stopped", "notifier", fmt.Sprintf("%T", n), "error", err)
			}
		}(n)
	}
	wg.Wait()
	return nil
}
