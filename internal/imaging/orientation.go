package imaging

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// Orientation is the counter-clockwise rotation, in degrees, that brings a
// camera frame upright for the device's mounting.
type Orientation int

// Supported orientations.
const (
	Rotate0   Orientation = 0
	Rotate90  Orientation = 90
	Rotate180 Orientation = 180
	Rotate270 Orientation = 270
)

// ParseOrientation validates a rotation given in degrees.
func ParseOrientation(deg int) (Orientation, error) {
	o := Orientation(deg)
	if !o.Valid() {
		return 0, fmt.Errorf("%w: orientation %d (want 0, 90, 180 or 270)", ErrContractViolation, deg)
	}
	return o, nil
}

// Valid reports whether o is one of the four supported rotations.
func (o Orientation) Valid() bool {
	switch o {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return true
	}
	return false
}

// SwapsAxes reports whether the rotation exchanges width and height.
func (o Orientation) SwapsAxes() bool {
	return o == Rotate90 || o == Rotate270
}

// PlatformOrientation returns the mounting rotation for the runtime
// platform. Android back cameras deliver landscape sensor frames into a
// portrait surface; desktop webcams are already upright.
func PlatformOrientation(goos string) Orientation {
	if goos == "android" {
		return Rotate270
	}
	return Rotate0
}

// Corrector applies a fixed orientation to every frame matrix.
type Corrector struct {
	orientation Orientation
}

// NewCorrector returns a corrector for o. Invalid values are rejected here,
// once, so Apply never has to fail.
func NewCorrector(o Orientation) (*Corrector, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: orientation %d", ErrContractViolation, int(o))
	}
	return &Corrector{orientation: o}, nil
}

// Orientation returns the configured rotation.
func (c *Corrector) Orientation() Orientation {
	return c.orientation
}

// Apply rotates m by the configured orientation. The result is a pixel-exact
// permutation of the input; for 90 and 270 degrees width and height are
// swapped. Rotate0 returns m itself.
func (c *Corrector) Apply(m *Matrix) *Matrix {
	if c.orientation == Rotate0 {
		return m
	}
	if m.Channels == 4 {
		return rotatePacked(m, c.orientation)
	}
	return rotateGeneric(m, c.orientation)
}

// rotatePacked handles 4-byte pixels through imaging, which treats the
// payload as opaque NRGBA bytes regardless of channel order.
func rotatePacked(m *Matrix, o Orientation) *Matrix {
	view := nrgbaView(m.Pix, m.Width, m.Height)

	var out *Matrix
	switch o {
	case Rotate90:
		dst := imaging.Rotate90(view)
		out = &Matrix{Width: m.Height, Height: m.Width, Pix: dst.Pix}
	case Rotate180:
		dst := imaging.Rotate180(view)
		out = &Matrix{Width: m.Width, Height: m.Height, Pix: dst.Pix}
	case Rotate270:
		dst := imaging.Rotate270(view)
		out = &Matrix{Width: m.Height, Height: m.Width, Pix: dst.Pix}
	}
	out.Channels = m.Channels
	out.Order = m.Order
	return out
}

// rotateGeneric rotates counter-clockwise for any channel count.
func rotateGeneric(m *Matrix, o Orientation) *Matrix {
	w, h, ch := m.Width, m.Height, m.Channels
	dw, dh := w, h
	if o.SwapsAxes() {
		dw, dh = h, w
	}
	out := &Matrix{Width: dw, Height: dh, Channels: ch, Order: m.Order, Pix: make([]byte, len(m.Pix))}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch o {
			case Rotate90:
				dx, dy = y, w-1-x
			case Rotate180:
				dx, dy = w-1-x, h-1-y
			case Rotate270:
				dx, dy = h-1-y, x
			}
			s := (y*w + x) * ch
			d := (dy*dw + dx) * ch
			copy(out.Pix[d:d+ch], m.Pix[s:s+ch])
		}
	}
	return out
}
