package catalog

import (
	"context"
	"sync"

	"storybook/internal/models"
)

// switchSource is a Source whose contents can change between reads.
type switchSource struct {
	mu     sync.Mutex
	themes []models.Theme
}

func (s *switchSource) set(themes []models.Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.themes = themes
}

func (s *switchSource) ListThemes(context.Context) ([]models.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Theme(nil), s.themes...), nil
}
