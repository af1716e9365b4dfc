// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package document

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"storybook/internal/imaging"
	"storybook/internal/models"
)

// A5 page geometry in millimetres.
const (
	pageW   = 148.0
	pageH   = 210.0
	margin  = 15.0
	textW   = pageW - 2*margin
	borderW = 1.6
	qrSize  = 24.0
)

// bodySizes are the story text font sizes tried, largest first, until
// the text fits above the footer.
var bodySizes = []float64{13, 12, 11, 10, 9}

// Render serializes a composed document into a PDF. Identical documents
// produce identical bytes: the creation and modification dates are taken
// from doc.CreatedAt and the catalog is written in sorted order. Any
// embedding failure aborts the render and no bytes are returned.
func Render(doc *models.ComposedDocument) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetCompression(true)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(doc.CreatedAt)
	pdf.SetModificationDate(doc.CreatedAt)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(margin, margin, margin)

	pdf.SetTitle(doc.Title, true)
	pdf.SetSubject(doc.Subject, true)
	pdf.SetAuthor(doc.Author, true)
	pdf.SetKeywords(doc.Keywords, true)
	pdf.SetCreator("Storybook", true)

	r := &renderer{pdf: pdf, images: make(map[string]string)}
	for i := range doc.Pages {
		if err := r.page(&doc.Pages[i]); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: write pdf: %v", models.ErrComposition, err)
	}
	return buf.Bytes(), nil
}

type renderer struct {
	pdf    *fpdf.Fpdf
	images map[string]string // data URL -> registered image name
}

func (r *renderer) page(p *models.DocPage) error {
	r.pdf.AddPage()
	r.frame(p.Style)

	var err error
	switch p.Kind {
	case models.PageCover:
		err = r.cover(p)
	default:
		err = r.story(p)
	}
	if err != nil {
		return err
	}
	if r.pdf.Err() {
		return fmt.Errorf("%w: %v", models.ErrComposition, r.pdf.Error())
	}
	return nil
}

// frame paints the background, the outer border and the inner frame line.
func (r *renderer) frame(s models.PageStyle) {
	r.fill(s.Background)
	r.pdf.Rect(0, 0, pageW, pageH, "F")

	r.draw(s.Border)
	r.pdf.SetLineWidth(borderW)
	r.pdf.Rect(6, 6, pageW-12, pageH-12, "D")

	r.draw(s.Frame)
	r.pdf.SetLineWidth(0.4)
	r.pdf.Rect(9, 9, pageW-18, pageH-18, "D")
}

func (r *renderer) cover(p *models.DocPage) error {
	s := p.Style
	r.star(pageW/2, 26, 8, s.Accent)

	r.text(s.Border)
	r.pdf.SetFont("Helvetica", "B", 11)
	r.pdf.SetXY(margin, 38)
	r.pdf.CellFormat(textW, 6, pdfText(p.Heading), "", 1, "C", false, 0, "")

	r.text(s.Text)
	r.pdf.SetFont("Helvetica", "B", 24)
	r.pdf.SetXY(margin, 48)
	r.pdf.MultiCell(textW, 11, pdfText(p.Title), "", "C", false)

	r.pdf.SetFont("Helvetica", "I", 13)
	r.pdf.SetX(margin)
	r.pdf.MultiCell(textW, 7, pdfText(p.Subtitle), "", "C", false)

	if p.Image != nil {
		top := math.Max(r.pdf.GetY()+8, 95)
		if err := r.image(p.Image, margin+6, top, textW-12, 175-top); err != nil {
			return err
		}
	}

	if p.Glyph {
		r.star(pageW/2, 188, 5, s.Accent)
	}
	return nil
}

func (r *renderer) story(p *models.DocPage) error {
	s := p.Style

	r.text(s.Accent)
	r.pdf.SetFont("Helvetica", "B", 16)
	r.pdf.SetXY(margin, 16)
	r.pdf.CellFormat(textW, 9, pdfText(p.Heading), "", 1, "C", false, 0, "")

	y := 32.0
	if p.Image != nil {
		h := 75.0
		if p.Image.Style == models.PhotoCircular {
			h = 70
		}
		if err := r.image(p.Image, margin+4, y, textW-8, h); err != nil {
			return err
		}
		y += h + 8
	}

	bottom := pageH - 20
	if p.ShareURL != "" {
		bottom = pageH - 26 - qrSize
	}
	body := pdfText(p.Body)
	size, lineH, err := r.fitBody(body, bottom-y)
	if err != nil {
		return fmt.Errorf("%s: %w", p.Heading, err)
	}

	r.text(s.Text)
	r.pdf.SetFont("Helvetica", "", size)
	r.pdf.SetXY(margin, y)
	r.pdf.MultiCell(textW, lineH, body, "", "C", false)

	if p.ShareURL != "" {
		if err := r.qr(p.ShareURL); err != nil {
			return err
		}
	}

	if p.Footer != nil {
		r.text(s.Border)
		r.pdf.SetFont("Helvetica", "", 10)
		r.pdf.SetXY(margin, pageH-18)
		r.pdf.CellFormat(textW, 5, p.Footer.String(), "", 0, "C", false, 0, "")
	}
	return nil
}

// fitBody returns the largest body font size, with its line height, at
// which text wraps into no more than h millimetres.
func (r *renderer) fitBody(text string, h float64) (size, lineH float64, err error) {
	for _, size := range bodySizes {
		lineH = size * 7 / 13
		r.pdf.SetFont("Helvetica", "", size)
		lines := r.pdf.SplitLines([]byte(text), textW)
		if float64(len(lines))*lineH <= h {
			return size, lineH, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: page text overflows at %gpt", models.ErrComposition, bodySizes[len(bodySizes)-1])
}

// image embeds a data-URL image centred and fitted inside the box.
func (r *renderer) image(img *models.PageImage, x, y, w, h float64) error {
	name, err := r.register(img.Ref)
	if err != nil {
		return err
	}
	info := r.pdf.GetImageInfo(name)
	iw, ih := info.Width(), info.Height()
	if iw <= 0 || ih <= 0 {
		return fmt.Errorf("%w: image %s has no size", models.ErrComposition, name)
	}

	scale := math.Min(w/iw, h/ih)
	dw, dh := iw*scale, ih*scale
	dx := x + (w-dw)/2
	dy := y + (h-dh)/2
	r.pdf.ImageOptions(name, dx, dy, dw, dh, false, fpdf.ImageOptions{}, 0, "")

	if img.Style == models.PhotoRectangular {
		r.pdf.SetLineWidth(0.6)
		r.pdf.Rect(dx, dy, dw, dh, "D")
	}
	return nil
}

// register decodes a data URL once and hands it to the PDF as an image.
func (r *renderer) register(ref string) (string, error) {
	if name, ok := r.images[ref]; ok {
		return name, nil
	}
	mime, data, err := imaging.DecodeDataURL(ref)
	if err != nil {
		return "", fmt.Errorf("%w: embed image: %v", models.ErrComposition, err)
	}
	var typ string
	switch imaging.NormalizeType(mime) {
	case "image/jpeg":
		typ = "JPG"
	case "image/png":
		typ = "PNG"
	default:
		return "", fmt.Errorf("%w: unsupported image type %q", models.ErrComposition, mime)
	}

	name := fmt.Sprintf("img%d", len(r.images)+1)
	r.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: typ}, bytes.NewReader(data))
	if r.pdf.Err() {
		return "", fmt.Errorf("%w: embed image: %v", models.ErrComposition, r.pdf.Error())
	}
	r.images[ref] = name
	return name, nil
}

// qr places a QR code for url in the bottom right corner.
func (r *renderer) qr(url string) error {
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("%w: share code: %v", models.ErrComposition, err)
	}
	name, err := r.register(imaging.DataURL("image/png", png))
	if err != nil {
		return err
	}
	r.pdf.ImageOptions(name, pageW-margin-qrSize, pageH-24-qrSize, qrSize, qrSize, false, fpdf.ImageOptions{}, 0, "")
	return nil
}

// star draws a filled five-pointed star centred on (cx, cy).
func (r *renderer) star(cx, cy, radius float64, c models.RGB) {
	points := make([]fpdf.PointType, 0, 10)
	for i := 0; i < 10; i++ {
		rad := radius
		if i%2 == 1 {
			rad = radius * 0.45
		}
		angle := -math.Pi/2 + float64(i)*math.Pi/5
		points = append(points, fpdf.PointType{X: cx + rad*math.Cos(angle), Y: cy + rad*math.Sin(angle)})
	}
	r.fill(c)
	r.draw(c)
	r.pdf.SetLineWidth(0.2)
	r.pdf.Polygon(points, "FD")
}

func (r *renderer) fill(c models.RGB) { r.pdf.SetFillColor(int(c.R), int(c.G), int(c.B)) }
func (r *renderer) draw(c models.RGB) { r.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B)) }
func (r *renderer) text(c models.RGB) { r.pdf.SetTextColor(int(c.R), int(c.G), int(c.B)) }
