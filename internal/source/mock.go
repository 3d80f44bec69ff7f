package source

import (
	"image"
	"math"

	"github.com/ironsheep/quadcam/internal/imaging"
)

// MockCamera generates synthetic frames: a white square turning slowly on a
// dark background. It stands in for a real camera during development and in
// tests.
type MockCamera struct {
	*stream

	// AngleStep is the rotation added per frame, in degrees.
	AngleStep float64
}

// NewMockCamera returns a stopped mock camera publishing into out.
func NewMockCamera(width, height, fps int, origin imaging.Origin, out Publisher) (*MockCamera, error) {
	s, err := newStream("mock", width, height, fps, origin, out)
	if err != nil {
		return nil, err
	}
	m := &MockCamera{stream: s, AngleStep: 3}
	s.render = m.Render
	return m, nil
}

// Render draws the frame for sequence number seq in the camera's buffer
// layout. Metadata (sequence, timestamp, trace ID) is left to the caller.
func (m *MockCamera) Render(seq uint64) *imaging.RawFrame {
	w, h := m.width, m.height
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 30, 30, 30, 255
	}

	side := 0.5 * float64(min(w, h))
	rad := math.Mod(float64(seq)*m.AngleStep, 90) * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	cx, cy := float64(w)/2, float64(h)/2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			u := dx*cos + dy*sin
			v := -dx*sin + dy*cos
			if math.Abs(u) < side/2 && math.Abs(v) < side/2 {
				i := img.PixOffset(x, y)
				img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 255, 255, 255
			}
		}
	}

	return imaging.FrameFromImage(img, m.origin)
}
