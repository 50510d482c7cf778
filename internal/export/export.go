// Package export writes flattened canvases as PNG images or printable PDF
// handouts.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/example/visionlearn/internal/render"
)

// Format is an output file format.
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts a format name or a file name ending in one.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	switch Format(s) {
	case FormatPNG, FormatPDF:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Options control an export.
type Options struct {
	Format Format
	// Shadow adds a drop shadow around the canvas.
	Shadow bool
	// Title is printed above the image in PDF output.
	Title string
	// Topics are listed below the image in PDF output.
	Topics []string
}

// Write encodes img to w.
func Write(w io.Writer, img image.Image, opts Options) error {
	if opts.Shadow {
		so := render.DefaultShadowOptions()
		if opts.Format == FormatPDF {
			so.Paper = color.RGBA{255, 255, 255, 255}
		}
		img, _ = render.DropShadow(img, so)
	}
	switch opts.Format {
	case "", FormatPNG:
		return png.Encode(w, img)
	case FormatPDF:
		return writePDF(w, img, opts)
	default:
		return fmt.Errorf("unsupported export format %q", opts.Format)
	}
}

const (
	pageMargin = 12.0
	titleSize  = 18.0
	bodySize   = 11.0
)

func writePDF(w io.Writer, img image.Image, opts Options) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	y := pageMargin
	if opts.Title != "" {
		pdf.SetFont("Helvetica", "B", titleSize)
		pdf.SetXY(pageMargin, y)
		pdf.CellFormat(pageW-2*pageMargin, 10, tr(opts.Title), "", 1, "C", false, 0, "")
		y += 14
	}

	footer := 0.0
	if len(opts.Topics) > 0 {
		footer = 12
	}
	boxW := pageW - 2*pageMargin
	boxH := pageH - y - pageMargin - footer

	b := img.Bounds()
	ratio := boxW / float64(b.Dx())
	if r := boxH / float64(b.Dy()); r < ratio {
		ratio = r
	}
	drawW, drawH := float64(b.Dx())*ratio, float64(b.Dy())*ratio
	x := pageMargin + (boxW-drawW)/2

	pdf.RegisterImageOptionsReader("canvas", gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
	pdf.ImageOptions("canvas", x, y, drawW, drawH, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	if len(opts.Topics) > 0 {
		pdf.SetFont("Helvetica", "", bodySize)
		pdf.SetXY(pageMargin, y+drawH+4)
		pdf.CellFormat(boxW, 6, tr("Topics: "+strings.Join(opts.Topics, ", ")), "", 1, "L", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	return pdf.Output(w)
}
