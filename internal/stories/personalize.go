package stories

import (
	"strings"

	"storybook/internal/models"
)

// Personalize replaces every occurrence of the name placeholder in the
// title, subtitle and page texts with name. It never fails and does not
// modify s.
func Personalize(s models.Story, name string) models.PersonalizedStory {
	pages := make([]models.Page, len(s.Pages))
	for i, p := range s.Pages {
		p.Text = fill(p.Text, name)
		pages[i] = p
	}
	return models.PersonalizedStory{
		ThemeID:   s.ThemeID,
		ChildName: name,
		Title:     fill(s.Title, name),
		Subtitle:  fill(s.Subtitle, name),
		Pages:     pages,
	}
}

func fill(text, name string) string {
	return strings.ReplaceAll(text, models.NamePlaceholder, name)
}
