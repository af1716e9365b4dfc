// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"

	"storybook/internal/models"
)

// Builtin returns the themes shipped with the service. Each one has a
// matching story in the story library.
func Builtin() []models.Theme {
	return []models.Theme{
		{
			ID:          "dragon_quest",
			Name:        "Dragon Quest",
			Emoji:       "🐉",
			Description: "A brave journey up the Misty Mountains to help a dragon find her egg.",
			Colors: models.Palette{
				Primary:    "#B91C1C",
				Secondary:  "#F59E0B",
				Accent:     "#FBBF24",
				Background: "#FFF7ED",
			},
			IsActive:  true,
			SortOrder: 1,
		},
		{
			ID:          "space_adventure",
			Name:        "Space Adventure",
			Emoji:       "🚀",
			Description: "Blast off past the moon and make friends among the stars.",
			Colors: models.Palette{
				Primary:    "#1E3A8A",
				Secondary:  "#6366F1",
				Accent:     "#FACC15",
				Background: "#EEF2FF",
			},
			IsActive:  true,
			SortOrder: 2,
		},
		{
			ID:          "ocean_explorer",
			Name:        "Ocean Explorer",
			Emoji:       "🐠",
			Description: "Dive beneath the waves to discover a hidden coral kingdom.",
			Colors: models.Palette{
				Primary:    "#0E7490",
				Secondary:  "#22D3EE",
				Accent:     "#F97316",
				Background: "#ECFEFF",
			},
			IsActive:  true,
			SortOrder: 3,
		},
		{
			ID:          "enchanted_forest",
			Name:        "Enchanted Forest",
			Emoji:       "🌳",
			Description: "Follow the glowing fireflies into a forest full of friendly magic.",
			Colors: models.Palette{
				Primary:    "#166534",
				Secondary:  "#84CC16",
				Accent:     "#C084FC",
				Background: "#F0FDF4",
			},
			IsActive:  true,
			SortOrder: 4,
		},
	}
}

// StaticSource serves a fixed list of themes.
type StaticSource []models.Theme

// ListThemes returns a copy of the list.
func (s StaticSource) ListThemes(context.Context) ([]models.Theme, error) {
	out := make([]models.Theme, len(s))
	copy(out, s)
	return out, nil
}
