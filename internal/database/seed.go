package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"storybook/internal/models"
)

// Seed inserts the given themes when the themes table is empty. Existing
// catalogs are left untouched so operators can edit them freely.
func Seed(db *sql.DB, themes []models.Theme) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM themes").Scan(&count); err != nil {
		return fmt.Errorf("seed check themes: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	for _, t := range themes {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("seed theme %s: %w", t.ID, err)
		}
		_, err := tx.Exec(`
			INSERT INTO themes (id, name, emoji, description,
				color_primary, color_secondary, color_accent, color_background,
				is_active, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO NOTHING
		`, t.ID, t.Name, t.Emoji, t.Description,
			t.Colors.Primary, t.Colors.Secondary, t.Colors.Accent, t.Colors.Background,
			t.IsActive, t.SortOrder)
		if err != nil {
			return fmt.Errorf("seed insert theme %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with built-in themes", "count", len(themes))
	return nil
}
