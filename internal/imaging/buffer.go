package imaging

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
)

// ErrContractViolation marks inputs that break a boundary contract: buffer
// lengths that do not match the declared dimensions, unknown layouts, or
// unsupported orientation values. These are never coerced.
var ErrContractViolation = errors.New("contract violation")

// Origin is the vertical convention of a display surface buffer.
type Origin int

const (
	// TopLeft means row 0 of the buffer is the top row of the picture.
	TopLeft Origin = iota
	// BottomLeft means row 0 of the buffer is the bottom row (GL-style textures).
	BottomLeft
)

func (o Origin) String() string {
	switch o {
	case TopLeft:
		return "top-left"
	case BottomLeft:
		return "bottom-left"
	default:
		return fmt.Sprintf("Origin(%d)", int(o))
	}
}

// ChannelOrder describes how the channels of a pixel are laid out in memory.
type ChannelOrder int

const (
	// OrderRGBA is the display surface order.
	OrderRGBA ChannelOrder = iota
	// OrderBGRA is the detector-native order with alpha.
	OrderBGRA
	// OrderBGR is the detector-native order without alpha.
	OrderBGR
)

// Channels returns the number of bytes per pixel for the order.
func (c ChannelOrder) Channels() int {
	if c == OrderBGR {
		return 3
	}
	return 4
}

func (c ChannelOrder) String() string {
	switch c {
	case OrderRGBA:
		return "RGBA"
	case OrderBGRA:
		return "BGRA"
	case OrderBGR:
		return "BGR"
	default:
		return fmt.Sprintf("ChannelOrder(%d)", int(c))
	}
}

// RawFrame is a snapshot of a display surface buffer.
//
// Pix holds Height rows of Width RGBA pixels (4 bytes each). Row 0 is the top
// or bottom row of the picture depending on Origin. A frame handed to the
// frame loop or published by it must not be modified afterwards.
type RawFrame struct {
	Width  int
	Height int
	Origin Origin
	Pix    []byte

	// Seq is the capture sequence number assigned by the camera.
	Seq uint64

	// Timestamp is when the camera produced the frame.
	Timestamp time.Time

	// TraceID correlates log lines for one captured frame.
	TraceID string
}

// NewRawFrame wraps pix as a frame after checking its length.
func NewRawFrame(width, height int, origin Origin, pix []byte) (*RawFrame, error) {
	if err := checkBuffer(pix, width, height); err != nil {
		return nil, err
	}
	return &RawFrame{Width: width, Height: height, Origin: origin, Pix: pix}, nil
}

// Validate reports whether the payload matches the declared dimensions.
func (f *RawFrame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrContractViolation)
	}
	return checkBuffer(f.Pix, f.Width, f.Height)
}

// Clone returns a deep copy of the frame.
func (f *RawFrame) Clone() *RawFrame {
	c := *f
	c.Pix = append([]byte(nil), f.Pix...)
	return &c
}

// Upright returns the frame as a top-left origin NRGBA image sharing no
// memory with the frame.
func (f *RawFrame) Upright() (*image.NRGBA, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	view := nrgbaView(f.Pix, f.Width, f.Height)
	if f.Origin == BottomLeft {
		return imaging.FlipV(view), nil
	}
	return imaging.Clone(view), nil
}

// Matrix is a mutable pixel grid in detector channel order.
type Matrix struct {
	Width    int
	Height   int
	Channels int
	Order    ChannelOrder
	Pix      []byte
}

// NewMatrix allocates a zeroed matrix.
func NewMatrix(width, height int, order ChannelOrder) *Matrix {
	return &Matrix{
		Width:    width,
		Height:   height,
		Channels: order.Channels(),
		Order:    order,
		Pix:      make([]byte, width*height*order.Channels()),
	}
}

// Validate checks that the layout is consistent.
func (m *Matrix) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil matrix", ErrContractViolation)
	}
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("%w: matrix dimensions %dx%d", ErrContractViolation, m.Width, m.Height)
	}
	if m.Channels != m.Order.Channels() {
		return fmt.Errorf("%w: %d channels for order %s", ErrContractViolation, m.Channels, m.Order)
	}
	if want := m.Width * m.Height * m.Channels; len(m.Pix) != want {
		return fmt.Errorf("%w: matrix payload is %d bytes, want %d", ErrContractViolation, len(m.Pix), want)
	}
	return nil
}

// Clone returns a deep copy of the matrix.
func (m *Matrix) Clone() *Matrix {
	c := *m
	c.Pix = append([]byte(nil), m.Pix...)
	return &c
}

// Offset returns the index of the first byte of pixel (x, y).
func (m *Matrix) Offset(x, y int) int {
	return (y*m.Width + x) * m.Channels
}

// ToMatrix converts a display buffer into a BGRA processing matrix.
//
// The buffer is read as height rows of width RGBA pixels. Bottom-left
// buffers are flipped once so that the matrix always has a top-left origin,
// then red and blue are swapped. Both steps are byte permutations, so
// ToBuffer(ToMatrix(buf), origin) reproduces buf exactly.
//
// Returns an ErrContractViolation-wrapped error when len(buf) is not
// width*height*4 or the dimensions are not positive.
func ToMatrix(buf []byte, width, height int, origin Origin) (*Matrix, error) {
	if err := checkBuffer(buf, width, height); err != nil {
		return nil, err
	}

	var pix []byte
	if origin == BottomLeft {
		pix = imaging.FlipV(nrgbaView(buf, width, height)).Pix
	} else {
		pix = append([]byte(nil), buf...)
	}
	swapRedBlue(pix)

	return &Matrix{
		Width:    width,
		Height:   height,
		Channels: 4,
		Order:    OrderBGRA,
		Pix:      pix,
	}, nil
}

// FrameToMatrix is ToMatrix applied to a frame's payload and origin.
func FrameToMatrix(f *RawFrame) (*Matrix, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil frame", ErrContractViolation)
	}
	return ToMatrix(f.Pix, f.Width, f.Height, f.Origin)
}

// ToBuffer converts a processing matrix back into a display buffer with the
// given origin. BGR matrices are expanded with an opaque alpha channel.
func ToBuffer(m *Matrix, origin Origin) (*RawFrame, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	n := m.Width * m.Height
	pix := make([]byte, n*4)
	switch m.Order {
	case OrderBGRA:
		copy(pix, m.Pix)
		swapRedBlue(pix)
	case OrderRGBA:
		copy(pix, m.Pix)
	case OrderBGR:
		for i := 0; i < n; i++ {
			s, d := i*3, i*4
			pix[d+0] = m.Pix[s+2]
			pix[d+1] = m.Pix[s+1]
			pix[d+2] = m.Pix[s+0]
			pix[d+3] = 0xff
		}
	default:
		return nil, fmt.Errorf("%w: unsupported order %s", ErrContractViolation, m.Order)
	}

	if origin == BottomLeft {
		pix = imaging.FlipV(nrgbaView(pix, m.Width, m.Height)).Pix
	}

	if err := checkBuffer(pix, m.Width, m.Height); err != nil {
		return nil, err
	}
	return &RawFrame{Width: m.Width, Height: m.Height, Origin: origin, Pix: pix}, nil
}

func checkBuffer(buf []byte, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrContractViolation, width, height)
	}
	if want := width * height * 4; len(buf) != want {
		return fmt.Errorf("%w: buffer is %d bytes, want %d for %dx%d RGBA",
			ErrContractViolation, len(buf), want, width, height)
	}
	return nil
}

// nrgbaView exposes a tightly packed 4-byte-per-pixel payload as an NRGBA
// image without copying. imaging copies NRGBA rows verbatim, so flips and
// rotations through this view never alter channel values.
func nrgbaView(pix []byte, width, height int) *image.NRGBA {
	return &image.NRGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
}

func swapRedBlue(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
