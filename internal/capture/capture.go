// Package capture grabs the desktop as an image through the XDG desktop
// portal, falling back to a direct X11 root window grab.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
)

var (
	// ErrPermissionDenied is returned when the user or the compositor
	// refuses the capture request.
	ErrPermissionDenied = errors.New("screen capture permission denied")
	// ErrUnavailable is returned when no capture backend works here.
	ErrUnavailable = errors.New("screen capture unavailable")
)

// Options controls a capture request.
type Options struct {
	// Interactive lets the portal show its own selection dialog. Interactive
	// requests never fall back to X11.
	Interactive   bool
	IncludeCursor bool
	// Monitor crops the result to one monitor, see FindMonitor.
	Monitor string
}

var (
	portalScreenshotFn = portalScreenshot
	rootScreenshotFn   = rootScreenshot
	listMonitorsFn     = listMonitors
)

// Screenshot captures the desktop.
func Screenshot(ctx context.Context, opts Options) (*image.RGBA, error) {
	img, err := portalScreenshotFn(ctx, opts)
	if err != nil {
		if opts.Interactive || !isPortalUnsupportedError(err) {
			return nil, err
		}
		fallback, ferr := rootScreenshotFn(ctx)
		if ferr != nil {
			return nil, fmt.Errorf("portal screenshot: %v; x11 fallback: %w", err, ferr)
		}
		img = fallback
	}
	if opts.Monitor == "" {
		return img, nil
	}
	monitors, err := listMonitorsFn()
	if err != nil {
		return nil, err
	}
	mon, err := FindMonitor(monitors, opts.Monitor)
	if err != nil {
		return nil, err
	}
	return cropToRect(img, mon.Rect)
}

// ListMonitors returns the connected monitors.
func ListMonitors() ([]MonitorInfo, error) {
	return listMonitorsFn()
}

func cropToRect(src *image.RGBA, rect image.Rectangle) (*image.RGBA, error) {
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("requested region outside captured image")
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return dst, nil
}
