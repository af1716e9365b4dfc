// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package remote delegates storybook generation to an external workflow
// service and normalizes whatever it sends back into artifact references.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"storybook/internal/imaging"
	"storybook/internal/models"
)

const (
	// MaxPhotoEncodedLength is the base64 length of a MaxUploadSize photo.
	MaxPhotoEncodedLength = (imaging.MaxUploadSize + 2) / 3 * 4

	// maxResponseSize bounds how much of a response body is read.
	maxResponseSize = 50 << 20

	// DefaultTimeout applies when the caller configures none.
	DefaultTimeout = 2 * time.Minute
)

// Request is the JSON body sent to the remote service.
type Request struct {
	ChildName     string `json:"childName"`
	ThemeID       string `json:"themeId"`
	ThemeName     string `json:"themeName"`
	Photo         string `json:"photo"` // standard base64, no data URL prefix
	PhotoMimeType string `json:"photoMimeType"`
}

// Validate checks the request fields the caller controls. Whether the
// theme is active is the caller's responsibility.
func (r Request) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.ChildName, validation.Required),
		validation.Field(&r.ThemeID, validation.Required),
		validation.Field(&r.Photo,
			validation.Required,
			validation.Length(1, MaxPhotoEncodedLength).Error("photo is too large"),
		),
		validation.Field(&r.PhotoMimeType,
			validation.Required,
			validation.By(func(v any) error {
				if !imaging.IsAccepted(v.(string)) {
					return validation.NewError("validation_mime", "must be a JPEG, PNG or WebP image")
				}
				return nil
			}),
		),
	)
	return models.FromValidation(err)
}

// NewRequest builds a request carrying photo as standard base64.
func NewRequest(childName string, theme models.Theme, photo []byte, mimeType string) Request {
	return Request{
		ChildName:     childName,
		ThemeID:       theme.ID,
		ThemeName:     theme.Name,
		Photo:         base64.StdEncoding.EncodeToString(photo),
		PhotoMimeType: mimeType,
	}
}

// Client calls the remote generation webhook.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a client for the webhook at url.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{url: url, http: &http.Client{Timeout: timeout}}
}

// Configured reports whether a webhook URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.url != ""
}

// Generate sends req and normalizes the response. Every failure wraps
// models.ErrRemote; the wrapped detail is meant for logs, not users.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("%w: remote generation is not configured", models.ErrRemote)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", models.ErrRemote, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", models.ErrRemote, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/pdf, application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: call webhook: %v", models.ErrRemote, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", models.ErrRemote, err)
	}
	if len(payload) > maxResponseSize {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", models.ErrRemote, maxResponseSize)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: webhook returned %d: %s", models.ErrRemote, resp.StatusCode, snippet(payload))
	}

	ct, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if ct == "application/pdf" || bytes.HasPrefix(payload, pdfMagic) {
		if err := checkPDF(payload); err != nil {
			return nil, fmt.Errorf("%w: binary response: %v", models.ErrRemote, err)
		}
		return &Result{PDF: payload}, nil
	}
	return Normalize(payload)
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
