// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// ThemeChangesChannel is the Postgres channel the themes table trigger
// notifies on every row change.
const ThemeChangesChannel = "themes_changed"

// defaultListenRetry is the pause before reconnecting a dropped listener.
const defaultListenRetry = 5 * time.Second

// ThemeListener reports changes to the themes table through
// LISTEN/NOTIFY on a dedicated connection.
type ThemeListener struct {
	dsn   string
	retry time.Duration
}

// NewThemeListener creates a listener connecting with dsn.
func NewThemeListener(dsn string) *ThemeListener {
	return &ThemeListener{dsn: dsn, retry: defaultListenRetry}
}

// Watch calls onChange for every notification until ctx is done. A lost
// connection is re-established and followed by one onChange, since
// notifications sent while disconnected are gone.
func (l *ThemeListener) Watch(ctx context.Context, onChange func()) error {
	first := true
	for {
		err := l.listen(ctx, onChange, !first)
		if ctx.Err() != nil {
			return nil
		}
		first = false
		slog.Warn("theme listener disconnected, retrying", "retry", l.retry, "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.retry):
		}
	}
}

func (l *ThemeListener) listen(ctx context.Context, onChange func(), catchUp bool) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+ThemeChangesChannel); err != nil {
		return fmt.Errorf("listen %s: %w", ThemeChangesChannel, err)
	}
	slog.Info("theme listener connected", "channel", ThemeChangesChannel)
	if catchUp {
		onChange()
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		slog.Debug("theme changed", "theme_id", n.Payload)
		onChange()
	}
}
