package imaging

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBAColor represents an RGBA color with 8-bit components including alpha.
type RGBAColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
	A uint8 `json:"a"` // Alpha/opacity component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a pixel value in several representations.
type ColorResult struct {
	X    int       `json:"x"`
	Y    int       `json:"y"`
	Hex  string    `json:"hex"`  // Hex format "#RRGGBB" (no alpha)
	RGBA RGBAColor `json:"rgba"` // RGBA components with alpha
	HSL  HSLColor  `json:"hsl"`  // HSL representation
}

// SampleColor reads the pixel at (x, y) of a display frame.
//
// Coordinates are 0-based with origin at the top-left of the picture,
// whatever the frame's buffer origin is.
//
// Returns an error if the frame is malformed or the coordinates are outside
// it.
func SampleColor(frame *RawFrame, x, y int) (*ColorResult, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	if x < 0 || x >= frame.Width || y < 0 || y >= frame.Height {
		return nil, fmt.Errorf("coordinates (%d,%d) outside frame bounds %dx%d", x, y, frame.Width, frame.Height)
	}

	row := y
	if frame.Origin == BottomLeft {
		row = frame.Height - 1 - y
	}
	i := (row*frame.Width + x) * 4
	r8, g8, b8, a8 := frame.Pix[i], frame.Pix[i+1], frame.Pix[i+2], frame.Pix[i+3]

	c := colorful.Color{R: float64(r8) / 255, G: float64(g8) / 255, B: float64(b8) / 255}
	h, s, l := c.Hsl()

	return &ColorResult{
		X:    x,
		Y:    y,
		Hex:  fmt.Sprintf("#%02X%02X%02X", r8, g8, b8),
		RGBA: RGBAColor{R: r8, G: g8, B: b8, A: a8},
		HSL:  HSLColor{H: int(h), S: int(s * 100), L: int(l * 100)},
	}, nil
}
