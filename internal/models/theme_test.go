package models

import (
	"errors"
	"testing"
)

func validTheme() Theme {
	return Theme{
		ID:   "dragon_quest",
		Name: "Dragon Quest",
		Colors: Palette{
			Primary:    "#B22222",
			Secondary:  "#FF8C00",
			Accent:     "#FFD700",
			Background: "#FFF8E7",
		},
		IsActive: true,
	}
}

func TestThemeValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Theme)
		wantField string
	}{
		{"valid", func(*Theme) {}, ""},
		{"missing id", func(th *Theme) { th.ID = "" }, "id"},
		{"bad id charset", func(th *Theme) { th.ID = "Dragon Quest" }, "id"},
		{"missing name", func(th *Theme) { th.Name = "" }, "name"},
		{"missing accent", func(th *Theme) { th.Colors.Accent = "" }, "colors.accent"},
		{"short hex", func(th *Theme) { th.Colors.Primary = "#FFF" }, "colors.primary"},
		{"named colour", func(th *Theme) { th.Colors.Background = "white" }, "colors.background"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := validTheme()
			tt.mutate(&th)
			err := th.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected field %q in %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestThemeSnapshot(t *testing.T) {
	th := validTheme()
	th.Emoji = "🐉"
	snap := th.Snapshot()
	if snap.ID != th.ID || snap.Name != th.Name || snap.Emoji != th.Emoji {
		t.Errorf("snapshot mismatch: %+v", snap)
	}
}

func TestFromValidationPassthrough(t *testing.T) {
	if FromValidation(nil) != nil {
		t.Error("nil should stay nil")
	}
	other := errors.New("boom")
	if FromValidation(other) != other {
		t.Error("non-validation errors should be returned unchanged")
	}
}
