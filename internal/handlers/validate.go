package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"storybook/internal/generation"
	"storybook/internal/imaging"
	"storybook/internal/models"
)

// Request size limits.
const (
	// formOverhead covers the multipart envelope and text fields.
	formOverhead = 64 << 10

	// maxDraftBody bounds a draft: the photo data URL plus the fields.
	maxDraftBody = (imaging.MaxUploadSize+2)/3*4 + formOverhead
)

// parseGenerateForm reads the multipart generate form: name, theme and
// an optional photo file. Missing values are left empty for the
// generation request validation to report.
func parseGenerateForm(w http.ResponseWriter, r *http.Request) (generation.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+formOverhead)
	if err := r.ParseMultipartForm(imaging.MaxUploadSize + formOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return generation.Request{}, imaging.Validate("image/jpeg", imaging.MaxUploadSize+1)
		}
		return generation.Request{}, models.NewValidationError("form", "Please submit the form as multipart/form-data.")
	}

	req := generation.Request{
		ChildName: r.FormValue("name"),
		ThemeID:   r.FormValue("theme"),
	}

	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return req, models.NewValidationError("photo", "The photo could not be read.")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, imaging.MaxUploadSize+1))
	if err != nil {
		return req, models.NewValidationError("photo", "The photo could not be read.")
	}
	req.Photo = data
	req.PhotoType = header.Header.Get("Content-Type")
	return req, nil
}

// draftInput is the body of PUT /api/draft.
type draftInput struct {
	ChildName string `json:"child_name"`
	ThemeID   string `json:"theme_id"`
	Photo     string `json:"photo"`
}

// Validate allows a partially filled form but rejects values that could
// never be submitted.
func (d draftInput) Validate() error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.ChildName, validation.RuneLength(0, generation.MaxNameLength)),
		validation.Field(&d.ThemeID, validation.Length(0, 64)),
		validation.Field(&d.Photo, validation.By(validDraftPhoto)),
	)
	return models.FromValidation(err)
}

func validDraftPhoto(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	mime, data, err := imaging.DecodeDataURL(s)
	if err != nil {
		return validation.NewError("validation_photo_encoding", "must be an image data URL")
	}
	if !imaging.IsAccepted(mime) {
		return validation.NewError("validation_photo_type", "must be a JPEG, PNG or WebP image")
	}
	if len(data) > imaging.MaxUploadSize {
		return validation.NewError("validation_photo_size", "must be at most 5 MB")
	}
	return nil
}

func (d draftInput) draft() models.Draft {
	return models.Draft{
		ChildName: strings.TrimSpace(d.ChildName),
		ThemeID:   strings.TrimSpace(d.ThemeID),
		Photo:     d.Photo,
	}
}
