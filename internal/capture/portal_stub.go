//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package capture

import (
	"context"
	"fmt"
	"image"
)

func portalScreenshot(context.Context, Options) (*image.RGBA, error) {
	return nil, fmt.Errorf("%w: no desktop portal on this platform", ErrUnavailable)
}

func isPortalUnsupportedError(error) bool { return false }
