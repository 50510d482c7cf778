package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func canvasImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 128, 72))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetRGBA(10, 10, color.RGBA{R: 255, A: 255})
	return img
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{"PDF", FormatPDF, false},
		{"lesson.pdf", FormatPDF, false},
		{"/tmp/out.PNG", FormatPNG, false},
		{"jpeg", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Fatalf("ParseFormat(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, canvasImage(), Options{Format: FormatPNG}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 128 || img.Bounds().Dy() != 72 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
}

func TestWritePNGWithShadowGrows(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, canvasImage(), Options{Format: FormatPNG, Shadow: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() <= 128 || img.Bounds().Dy() <= 72 {
		t.Fatalf("shadow did not grow the image: %v", img.Bounds())
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, canvasImage(), Options{
		Format: FormatPDF,
		Shadow: true,
		Title:  "Photosynthesis",
		Topics: []string{"Light", "Chlorophyll"},
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:min(buf.Len(), 16)])
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, canvasImage(), Options{Format: "gif"}); err == nil {
		t.Fatalf("expected error")
	}
}
