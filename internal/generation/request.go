// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package generation

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"storybook/internal/imaging"
	"storybook/internal/models"
)

// MaxNameLength is the longest accepted child name, in characters.
const MaxNameLength = 50

// childName allows letters, spaces, hyphens and apostrophes.
var childName = regexp.MustCompile(`^\p{L}[\p{L}\p{M} '’-]*$`)

// Request is a user's generate form submission.
type Request struct {
	ChildName string
	ThemeID   string
	Photo     []byte
	PhotoType string // declared MIME type; sniffed when empty
}

// Normalize trims the text fields and resolves the photo type.
func (r *Request) Normalize() {
	r.ChildName = strings.Join(strings.Fields(r.ChildName), " ")
	r.ThemeID = strings.TrimSpace(r.ThemeID)
	if len(r.Photo) > 0 {
		r.PhotoType = imaging.DetectType(r.Photo, r.PhotoType)
	}
}

// Validate checks the form fields, then the photo type and size. Field
// errors unwrap to models.ErrValidation; photo format errors also unwrap
// to models.ErrInvalidPhoto.
func (r Request) Validate() error {
	err := validation.Errors{
		"name": validation.Validate(r.ChildName,
			validation.Required.Error("Please enter the child's name."),
			validation.RuneLength(1, MaxNameLength).Error("The name must be at most 50 characters."),
			validation.Match(childName).Error("The name may only contain letters, spaces, hyphens and apostrophes."),
		),
		"theme": validation.Validate(r.ThemeID, validation.Required.Error("Please choose a theme.")),
		"photo": validation.Validate(r.Photo, validation.Required.Error("Please upload a photo.")),
	}.Filter()
	if err != nil {
		return models.FromValidation(err)
	}
	return imaging.Validate(r.PhotoType, int64(len(r.Photo)))
}
