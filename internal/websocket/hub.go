// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package websocket streams generation progress to browsers. Each client
// id gets one pub/sub subscription, shared by all of its open sockets.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"storybook/internal/middleware"
	"storybook/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Subscriber delivers an owner's progress events until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, owner string, fn func(models.ProgressEvent)) error
}

// conn serializes writes to one socket.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) write(msgType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(msgType, data)
}

// Hub tracks open sockets per client id.
type Hub struct {
	sub      Subscriber
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	conns   map[string][]*conn
	cancels map[string]context.CancelFunc
}

// NewHub creates a hub. An empty origins list accepts any origin.
func NewHub(sub Subscriber, origins []string) *Hub {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Hub{
		sub: sub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 || allowed["*"] {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
		conns:   make(map[string][]*conn),
		cancels: make(map[string]context.CancelFunc),
	}
}

// HandleWebSocket upgrades the request and streams the caller's events.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	owner := middleware.ClientID(r.Context())
	if owner == "" {
		http.Error(w, "Missing client id", http.StatusBadRequest)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &conn{ws: ws}
	h.register(owner, c)

	done := make(chan struct{})
	go h.pinger(c, done)
	go func() {
		defer close(done)
		defer h.unregister(owner, c)
		ws.SetReadLimit(512)
		ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) pinger(c *conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) register(owner string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[owner] = append(h.conns[owner], c)
	if len(h.conns[owner]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancels[owner] = cancel
		go func() {
			if err := h.sub.Subscribe(ctx, owner, func(ev models.ProgressEvent) {
				h.Send(owner, ev)
			}); err != nil {
				slog.Warn("progress subscription ended", "error", err)
			}
		}()
	}
	slog.Debug("websocket connected", "connections", len(h.conns[owner]))
}

func (h *Hub) unregister(owner string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.ws.Close()
	list := h.conns[owner]
	for i, x := range list {
		if x == c {
			h.conns[owner] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(h.conns[owner]) == 0 {
		delete(h.conns, owner)
		if cancel, ok := h.cancels[owner]; ok {
			cancel()
			delete(h.cancels, owner)
		}
	}
}

// Send writes ev to every socket of owner.
func (h *Hub) Send(owner string, ev models.ProgressEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.RLock()
	list := append([]*conn(nil), h.conns[owner]...)
	h.mu.RUnlock()

	for _, c := range list {
		if err := c.write(websocket.TextMessage, data); err != nil {
			slog.Debug("websocket write failed", "error", err)
		}
	}
}

// Connections returns the number of open sockets for owner.
func (h *Hub) Connections(owner string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[owner])
}

// Close drops every socket and subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for owner, list := range h.conns {
		for _, c := range list {
			c.ws.Close()
		}
		delete(h.conns, owner)
	}
	for owner, cancel := range h.cancels {
		cancel()
		delete(h.cancels, owner)
	}
}
