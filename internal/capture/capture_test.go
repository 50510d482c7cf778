package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestFindMonitor(t *testing.T) {
	monitors := []MonitorInfo{
		{Index: 0, Name: "HDMI-1", Rect: image.Rect(0, 0, 1920, 1080)},
		{Index: 1, Name: "eDP-1", Rect: image.Rect(1920, 0, 3200, 800), Primary: true},
	}
	tests := []struct {
		selector string
		want     int
		wantErr  bool
	}{
		{"", 0, false},
		{"primary", 1, false},
		{"1", 1, false},
		{"#0", 0, false},
		{"edp", 1, false},
		{"5", 0, true},
		{"DP-9", 0, true},
	}
	for _, tc := range tests {
		got, err := FindMonitor(monitors, tc.selector)
		if (err != nil) != tc.wantErr {
			t.Fatalf("FindMonitor(%q) err = %v", tc.selector, err)
		}
		if !tc.wantErr && got.Index != tc.want {
			t.Fatalf("FindMonitor(%q) = %d, want %d", tc.selector, got.Index, tc.want)
		}
	}
	if _, err := FindMonitor(nil, ""); !errors.Is(err, errNoMonitors) {
		t.Fatalf("expected errNoMonitors, got %v", err)
	}
}

func TestScreenshotPermissionDeniedDoesNotFallBack(t *testing.T) {
	prevPortal, prevRoot := portalScreenshotFn, rootScreenshotFn
	t.Cleanup(func() {
		portalScreenshotFn = prevPortal
		rootScreenshotFn = prevRoot
	})

	portalScreenshotFn = func(context.Context, Options) (*image.RGBA, error) {
		return nil, ErrPermissionDenied
	}
	rootScreenshotFn = func(context.Context) (*image.RGBA, error) {
		t.Fatalf("fallback used after a refusal")
		return nil, nil
	}

	if _, err := Screenshot(context.Background(), Options{}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestScreenshotCropsToMonitor(t *testing.T) {
	prevPortal, prevMonitors := portalScreenshotFn, listMonitorsFn
	t.Cleanup(func() {
		portalScreenshotFn = prevPortal
		listMonitorsFn = prevMonitors
	})

	desktop := image.NewRGBA(image.Rect(0, 0, 300, 100))
	desktop.SetRGBA(200, 10, color.RGBA{1, 2, 3, 255})
	portalScreenshotFn = func(context.Context, Options) (*image.RGBA, error) { return desktop, nil }
	listMonitorsFn = func() ([]MonitorInfo, error) {
		return []MonitorInfo{
			{Index: 0, Name: "left", Rect: image.Rect(0, 0, 100, 100)},
			{Index: 1, Name: "right", Rect: image.Rect(100, 0, 300, 100)},
		}, nil
	}

	img, err := Screenshot(context.Background(), Options{Monitor: "right"})
	if err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 200, 100) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := img.RGBAAt(100, 10); got != (color.RGBA{1, 2, 3, 255}) {
		t.Fatalf("pixel = %v", got)
	}
}

func TestCropToRectOutside(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if _, err := cropToRect(src, image.Rect(20, 20, 30, 30)); err == nil {
		t.Fatalf("expected error")
	}
}
