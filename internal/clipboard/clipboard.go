// Package clipboard moves encoded images and text through the system
// clipboard.
package clipboard

import "errors"

// ErrEmpty reports that the clipboard holds nothing of the requested kind.
var ErrEmpty = errors.New("clipboard is empty")
