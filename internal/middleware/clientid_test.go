// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestIdentify(t *testing.T) {
	const known = "6f1c2b3a-9d8e-4f70-a1b2-c3d4e5f60718"

	tests := []struct {
		name       string
		header     string
		cookie     string
		want       string // "" means a fresh id
		wantCookie bool
	}{
		{name: "header", header: known, want: known},
		{name: "header upper case", header: "6F1C2B3A-9D8E-4F70-A1B2-C3D4E5F60718", want: known},
		{name: "cookie", cookie: known, want: known},
		{name: "header beats cookie", header: known, cookie: uuid.NewString(), want: known},
		{name: "none", wantCookie: true},
		{name: "malformed header", header: "../../etc", wantCookie: true},
		{name: "malformed cookie", cookie: "x", wantCookie: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := Identify(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = ClientID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
			if tt.header != "" {
				req.Header.Set(ClientIDHeader, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: ClientCookieName, Value: tt.cookie})
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if tt.want != "" && got != tt.want {
				t.Errorf("client id: got %q, want %q", got, tt.want)
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("client id %q is not a uuid", got)
			}
			if rr.Header().Get(ClientIDHeader) != got {
				t.Errorf("response header: got %q, want %q", rr.Header().Get(ClientIDHeader), got)
			}

			cookies := rr.Result().Cookies()
			if tt.wantCookie {
				if len(cookies) != 1 || cookies[0].Value != got || !cookies[0].Secure || !cookies[0].HttpOnly {
					t.Errorf("cookies: %+v", cookies)
				}
			} else if len(cookies) != 0 {
				t.Errorf("unexpected cookie: %+v", cookies)
			}
		})
	}
}

func TestClientIDMissing(t *testing.T) {
	if got := ClientID(context.Background()); got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if got := ClientID(WithClientID(context.Background(), "abc")); got != "abc" {
		t.Errorf("got %q", got)
	}
}
