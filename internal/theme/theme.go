package theme

import (
	"image/color"
)

// Theme defines the colours used by the editor window and the canvas.
type Theme struct {
	Name string

	// General
	Background color.RGBA // Window background around the canvas
	Foreground color.RGBA // Status text

	// Toolbar
	ToolbarBackground     color.RGBA
	ButtonBackground      color.RGBA
	ButtonBackgroundHover color.RGBA
	ButtonActive          color.RGBA
	ButtonText            color.RGBA
	ButtonBorder          color.RGBA

	// Canvas
	CanvasBackground color.RGBA // Letterbox colour behind the source image
	CropShade        color.RGBA // Tint over the area outside a crop selection
	HintBackground   color.RGBA // Crop confirmation hint box
	HintText         color.RGBA
}

// Default returns the built in dark theme used when nothing else is chosen.
func Default() *Theme {
	return &Theme{
		Name:                  "Default",
		Background:            color.RGBA{15, 23, 42, 255},
		Foreground:            color.RGBA{226, 232, 240, 255},
		ToolbarBackground:     color.RGBA{30, 41, 59, 255},
		ButtonBackground:      color.RGBA{51, 65, 85, 255},
		ButtonBackgroundHover: color.RGBA{71, 85, 105, 255},
		ButtonActive:          color.RGBA{79, 70, 229, 255},
		ButtonText:            color.RGBA{241, 245, 249, 255},
		ButtonBorder:          color.RGBA{100, 116, 139, 255},
		CanvasBackground:      color.RGBA{0, 0, 0, 255},
		CropShade:             color.RGBA{0, 0, 0, 102},
		HintBackground:        color.RGBA{30, 41, 59, 230},
		HintText:              color.RGBA{255, 255, 255, 255},
	}
}
