// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Everything runs in memory: the real orchestrator and history service
// are wired to map-backed stores.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"storybook/internal/catalog"
	"storybook/internal/generation"
	"storybook/internal/history"
	"storybook/internal/middleware"
	"storybook/internal/models"
	"storybook/internal/stories"
)

const testOwner = "8a7d2c1e-5b4f-4e3a-9c2d-1f0e9d8c7b6a"

// memBlobs is an in-memory artifact store.
type memBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
	types map[string]string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: map[string][]byte{}, types: map[string]string{}}
}

func (m *memBlobs) Put(_ context.Context, key, contentType string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memBlobs) Get(_ context.Context, key string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, "", models.ErrNotFound
	}
	return data, m.types[key], nil
}

func (m *memBlobs) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.blobs, k)
	}
	return nil
}

// memTracker is an in-memory remote generation tracker.
type memTracker struct {
	mu   sync.Mutex
	gens map[string]models.ActiveGeneration
}

func (m *memTracker) Save(_ context.Context, g models.ActiveGeneration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens[g.Owner+"/"+g.ID] = g
	return nil
}

func (m *memTracker) Update(_ context.Context, g models.ActiveGeneration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.gens[g.Owner+"/"+g.ID]; !ok {
		return models.ErrNotFound
	}
	m.gens[g.Owner+"/"+g.ID] = g
	return nil
}

func (m *memTracker) List(_ context.Context, owner string) ([]models.ActiveGeneration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ActiveGeneration
	for _, g := range m.gens {
		if g.Owner == owner {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (m *memTracker) Delete(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.gens[owner+"/"+id]; !ok {
		return models.ErrNotFound
	}
	delete(m.gens, owner+"/"+id)
	return nil
}

func (m *memTracker) Clear(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, g := range m.gens {
		if g.Owner == owner {
			delete(m.gens, k)
		}
	}
	return nil
}

// memDrafts is an in-memory draft store.
type memDrafts struct {
	mu     sync.Mutex
	drafts map[string]models.Draft
}

func (m *memDrafts) Get(_ context.Context, owner string) (models.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[owner]
	if !ok {
		return d, models.ErrNotFound
	}
	return d, nil
}

func (m *memDrafts) Save(_ context.Context, owner string, d models.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[owner] = d
	return nil
}

func (m *memDrafts) Delete(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, owner)
	return nil
}

// fakePresigner returns a predictable URL.
type fakePresigner struct{}

func (fakePresigner) PresignedURL(_ context.Context, key, name string, _ time.Duration) (string, error) {
	return "https://s3.example.com/" + key + "?name=" + name, nil
}

type testEnv struct {
	api     *API
	orch    *generation.Orchestrator
	history *history.Service
	blobs   *memBlobs
	drafts  *memDrafts
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	themes := catalog.Builtin()
	for i := range themes {
		if themes[i].ID == "ocean_explorer" {
			themes[i].IsActive = false
		}
	}
	cat := catalog.New(catalog.StaticSource(themes))
	if err := cat.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	env := &testEnv{
		blobs:  newMemBlobs(),
		drafts: &memDrafts{drafts: map[string]models.Draft{}},
	}
	lib := stories.MustLoad()
	env.history = history.NewService(history.NewMemory(), env.blobs, history.DefaultLimit)
	env.orch = generation.New(generation.Deps{
		Themes:        cat,
		Stories:       lib,
		History:       env.history,
		Artifacts:     env.blobs,
		Tracker:       &memTracker{gens: map[string]models.ActiveGeneration{}},
		PublicBaseURL: "https://books.example.com",
	})
	t.Cleanup(func() { env.orch.Shutdown(context.Background()) })

	env.api = NewAPI(Deps{
		Themes:    cat,
		Stories:   lib,
		Generator: env.orch,
		History:   env.history,
		Drafts:    env.drafts,
		Artifacts: env.blobs,
	})
	return env
}

// request builds a request carrying the test client id and chi URL params
// given as name, value pairs.
func request(method, target string, body *bytes.Buffer, params ...string) *http.Request {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(middleware.WithClientID(ctx, testOwner))
}

// generateForm builds a multipart generate form.
func generateForm(t *testing.T, name, theme string, photo []byte, photoType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("name", name)
	mw.WriteField("theme", theme)
	if photo != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="photo"; filename="photo"`)
		h.Set("Content-Type", photoType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		part.Write(photo)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 300, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 200, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}
