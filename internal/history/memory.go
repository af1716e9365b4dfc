package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"storybook/internal/models"
)

// Memory is an in-process Repository for tests and single-node setups
// without PostgreSQL.
type Memory struct {
	mu    sync.Mutex
	items map[string]map[string]models.HistoryItem // owner -> id -> item
}

// NewMemory creates an empty Memory repository.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]map[string]models.HistoryItem)}
}

func (m *Memory) Insert(_ context.Context, item models.HistoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byID, ok := m.items[item.Owner]
	if !ok {
		byID = make(map[string]models.HistoryItem)
		m.items[item.Owner] = byID
	}
	if _, exists := byID[item.ID]; exists {
		return fmt.Errorf("history item %s already exists", item.ID)
	}
	byID[item.ID] = item
	return nil
}

func (m *Memory) Get(_ context.Context, owner, id string) (models.HistoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[owner][id]
	if !ok {
		return models.HistoryItem{}, fmt.Errorf("history item %s: %w", id, models.ErrNotFound)
	}
	return item, nil
}

func (m *Memory) List(_ context.Context, owner string, trashed bool) ([]models.HistoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.HistoryItem
	for _, item := range m.items[owner] {
		if item.InTrash() == trashed {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) SetDeletedAt(_ context.Context, owner, id string, at *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[owner][id]
	if !ok {
		return fmt.Errorf("history item %s: %w", id, models.ErrNotFound)
	}
	item.DeletedAt = at
	m.items[owner][id] = item
	return nil
}

func (m *Memory) Delete(_ context.Context, owner string, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.items[owner], id)
	}
	return nil
}
