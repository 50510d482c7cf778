//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package capture

import (
	"context"
	"fmt"
	"image"
)

func rootScreenshot(context.Context) (*image.RGBA, error) {
	return nil, fmt.Errorf("%w: no X11 on this platform", ErrUnavailable)
}

func listMonitors() ([]MonitorInfo, error) {
	return nil, fmt.Errorf("monitor listing is not supported on this platform")
}
