// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package remote

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/ledongthuc/pdf"

	"storybook/internal/models"
)

var pdfMagic = []byte("%PDF-")

// Result is the normalized outcome of a remote generation. Either PDF or
// ArtifactURL is set.
type Result struct {
	ArtifactURL      string
	ArtifactDownload string
	CoverURL         string
	CoverDownload    string
	PDF              []byte
}

// Field names recognised in responses, in priority order.
var (
	wrapperKeys      = []string{"files", "data", "items", "results"}
	artifactURLKeys  = []string{"pdfUrl", "pdf_url", "storybookUrl", "artifactUrl"}
	artifactDLKeys   = []string{"pdfDownloadUrl", "downloadUrl", "download_url"}
	coverURLKeys     = []string{"coverUrl", "cover_url", "coverImageUrl"}
	coverDLKeys      = []string{"coverDownloadUrl", "cover_download_url"}
	base64Keys       = []string{"pdfBase64", "pdf_base64", "fileBase64", "base64"}
	descURLKeys      = []string{"url", "fileUrl", "file_url", "webViewLink", "link", "href"}
	descDownloadKeys = []string{"downloadUrl", "download_url", "webContentLink"}
	descNameKeys     = []string{"name", "fileName", "filename", "title"}
	descMimeKeys     = []string{"mimeType", "mime_type", "contentType", "content_type"}
	descRoleKeys     = []string{"role", "label", "purpose"}
	descIDKeys       = []string{"id", "fileId", "file_id"}
)

// Normalize decodes a JSON response body into a Result. It accepts, in
// this order:
//
//  1. an object with an error flag, which fails;
//  2. an object with explicit artifact fields (pdfUrl, coverUrl, pdfBase64, ...);
//  3. an object wrapping a list or object under files, data, items or results;
//  4. an array of file descriptors;
//  5. an object that is itself a single file descriptor.
//
// Inline base64 is only read from the explicit base64 field names and must
// decode to a readable PDF. A response without an artifact reference fails
// with models.ErrRemote.
func Normalize(body []byte) (*Result, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("%w: unparseable response: %v", models.ErrRemote, err)
	}
	return normalizeValue(v, 0)
}

func normalizeValue(v any, depth int) (*Result, error) {
	if depth > 3 {
		return nil, fmt.Errorf("%w: response nested too deeply", models.ErrRemote)
	}
	switch t := v.(type) {
	case []any:
		return fromList(t)
	case map[string]any:
		return fromObject(t, depth)
	default:
		return nil, fmt.Errorf("%w: unexpected response of type %T", models.ErrRemote, v)
	}
}

func fromObject(m map[string]any, depth int) (*Result, error) {
	if ok, isBool := m["success"].(bool); isBool && !ok {
		return nil, fmt.Errorf("%w: service reported failure: %s", models.ErrRemote, first(m, "error", "message"))
	}
	if msg := first(m, "error"); msg != "" {
		return nil, fmt.Errorf("%w: service reported failure: %s", models.ErrRemote, msg)
	}

	res, err := explicitFields(m)
	if err != nil || res != nil {
		return res, err
	}

	for _, k := range wrapperKeys {
		switch inner := m[k].(type) {
		case []any, map[string]any:
			return normalizeValue(inner, depth+1)
		}
	}

	d, err := parseDescriptor(m)
	if err != nil {
		return nil, err
	}
	return fromDescriptors([]descriptor{d})
}

// explicitFields reads the dedicated artifact keys. It returns nil, nil
// when none are present.
func explicitFields(m map[string]any) (*Result, error) {
	res := &Result{
		ArtifactURL:      firstURL(m, artifactURLKeys...),
		ArtifactDownload: firstURL(m, artifactDLKeys...),
		CoverURL:         firstURL(m, coverURLKeys...),
		CoverDownload:    firstURL(m, coverDLKeys...),
	}
	data, err := inlinePDF(m)
	if err != nil {
		return nil, err
	}
	res.PDF = data

	if res.ArtifactURL == "" && res.PDF == nil {
		return nil, nil
	}
	return res, nil
}

func fromList(items []any) (*Result, error) {
	ds := make([]descriptor, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		d, err := parseDescriptor(m)
		if err != nil {
			return nil, err
		}
		ds = append(ds, d)
	}
	return fromDescriptors(ds)
}

// fromDescriptors picks the artifact and the cover. The first PDF entry
// is the artifact; a lone unclassified entry is used when there is no
// PDF. Among images, one labelled "cover" wins over the first seen.
func fromDescriptors(ds []descriptor) (*Result, error) {
	var art, cover *descriptor
	var unknown []*descriptor
	for i := range ds {
		d := &ds[i]
		switch d.kind() {
		case kindPDF:
			if art == nil {
				art = d
			}
		case kindImage:
			if cover == nil || (!cover.isCover() && d.isCover()) {
				cover = d
			}
		default:
			if d.ref() != "" {
				unknown = append(unknown, d)
			}
		}
	}
	if art == nil && len(unknown) == 1 {
		art = unknown[0]
	}
	if art == nil || (art.ref() == "" && art.data == nil) {
		return nil, fmt.Errorf("%w: no artifact reference in response", models.ErrRemote)
	}

	res := &Result{
		ArtifactURL:      art.ref(),
		ArtifactDownload: art.download(),
		PDF:              art.data,
	}
	if cover != nil {
		res.CoverURL = cover.ref()
		res.CoverDownload = cover.download()
	}
	return res, nil
}

type kind int

const (
	kindUnknown kind = iota
	kindPDF
	kindImage
)

type descriptor struct {
	name, mimeType, role string
	url, downloadURL     string
	driveID              string
	data                 []byte
}

func parseDescriptor(m map[string]any) (descriptor, error) {
	d := descriptor{
		name:        first(m, descNameKeys...),
		mimeType:    strings.ToLower(first(m, descMimeKeys...)),
		role:        strings.ToLower(first(m, descRoleKeys...)),
		url:         firstURL(m, descURLKeys...),
		downloadURL: firstURL(m, descDownloadKeys...),
	}
	if id := first(m, descIDKeys...); id != "" && (d.mimeType != "" || strings.HasPrefix(first(m, "kind"), "drive#")) {
		d.driveID = id
	}
	data, err := inlinePDF(m)
	if err != nil {
		return d, err
	}
	d.data = data
	return d, nil
}

func (d *descriptor) kind() kind {
	if d.data != nil {
		return kindPDF
	}
	switch {
	case d.mimeType == "application/pdf":
		return kindPDF
	case strings.HasPrefix(d.mimeType, "image/"):
		return kindImage
	}
	switch ext(d.name, d.url) {
	case ".pdf":
		return kindPDF
	case ".png", ".jpg", ".jpeg", ".webp":
		return kindImage
	}
	if d.isCover() {
		return kindImage
	}
	return kindUnknown
}

func (d *descriptor) isCover() bool {
	if strings.Contains(d.role, "cover") {
		return true
	}
	return strings.Contains(strings.ToLower(d.name+" "+path.Base(d.url)), "cover")
}

// ref is the view reference: an explicit URL or a Drive viewer link.
func (d *descriptor) ref() string {
	if d.url != "" {
		return d.url
	}
	if d.driveID != "" {
		return "https://drive.google.com/file/d/" + url.PathEscape(d.driveID) + "/view"
	}
	return ""
}

func (d *descriptor) download() string {
	if d.downloadURL != "" {
		return d.downloadURL
	}
	if d.driveID != "" {
		return "https://drive.google.com/uc?export=download&id=" + url.QueryEscape(d.driveID)
	}
	return ""
}

func ext(candidates ...string) string {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if u, err := url.Parse(c); err == nil && u.Path != "" {
			c = u.Path
		}
		if e := strings.ToLower(path.Ext(c)); e != "" {
			return e
		}
	}
	return ""
}

// inlinePDF decodes the first explicit base64 field. A present field
// that is not a valid PDF is an error rather than being ignored.
func inlinePDF(m map[string]any) ([]byte, error) {
	for _, k := range base64Keys {
		s, ok := m[k].(string)
		if !ok || s == "" {
			continue
		}
		if i := strings.Index(s, ";base64,"); i != -1 && strings.HasPrefix(s, "data:") {
			s = s[i+len(";base64,"):]
		}
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%w: field %s is not base64: %v", models.ErrRemote, k, err)
		}
		if err := checkPDF(data); err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", models.ErrRemote, k, err)
		}
		return data, nil
	}
	return nil, nil
}

// checkPDF verifies data starts with a PDF header and has readable pages.
func checkPDF(data []byte) (err error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return errors.New("not a pdf document")
	}
	// The reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unreadable pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("unreadable pdf: %w", err)
	}
	if r.NumPage() == 0 {
		return errors.New("pdf has no pages")
	}
	return nil
}

func first(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// firstURL returns the first key holding an absolute http(s) URL.
func firstURL(m map[string]any, keys ...string) string {
	for _, k := range keys {
		s, ok := m[k].(string)
		if !ok {
			continue
		}
		u, err := url.Parse(strings.TrimSpace(s))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			continue
		}
		return u.String()
	}
	return ""
}
