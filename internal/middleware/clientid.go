// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// ClientIDHeader carries the anonymous client id on API calls.
	ClientIDHeader = "X-Client-ID"

	// ClientCookieName is the cookie fallback for the client id.
	ClientCookieName = "sb_client"

	clientCookieMaxAge = 365 * 24 * time.Hour
)

type ctxKey string

const clientIDKey ctxKey = "client_id"

// Identify resolves the anonymous client id that scopes history, drafts
// and generations. The header wins over the cookie; a client with neither
// (or a malformed value) gets a fresh id in a cookie.
func Identify(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := validClientID(r.Header.Get(ClientIDHeader))
			if id == "" {
				if c, err := r.Cookie(ClientCookieName); err == nil {
					id = validClientID(c.Value)
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     ClientCookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(clientCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(ClientIDHeader, id)
			next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), id)))
		})
	}
}

// WithClientID stores id in ctx.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey, id)
}

// ClientID returns the client id stored by Identify, or "".
func ClientID(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey).(string)
	return id
}

// validClientID returns the canonical form of a UUID client id.
func validClientID(v string) string {
	u, err := uuid.Parse(v)
	if err != nil {
		return ""
	}
	return u.String()
}
