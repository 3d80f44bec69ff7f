package overlay

import (
	"bytes"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/quadcam/internal/detection"
	"github.com/ironsheep/quadcam/internal/imaging"
)

// createTestMatrix creates a black, opaque matrix.
func createTestMatrix(width, height int, order imaging.ChannelOrder) *imaging.Matrix {
	m := imaging.NewMatrix(width, height, order)
	if m.Channels == 4 {
		for i := 3; i < len(m.Pix); i += 4 {
			m.Pix[i] = 255
		}
	}
	return m
}

func pixelAt(m *imaging.Matrix, x, y int) []byte {
	i := m.Offset(x, y)
	return m.Pix[i : i+m.Channels]
}

var testQuad = &detection.Quad{Points: [4]image.Point{{10, 10}, {10, 40}, {40, 40}, {40, 10}}}

func TestDraw_NilQuad(t *testing.T) {
	m := createTestMatrix(20, 20, imaging.OrderBGRA)
	orig := m.Clone()

	out := NewRenderer().Draw(m, nil)
	if out != m {
		t.Error("Draw with nil quad should return the input matrix")
	}
	if diff := cmp.Diff(orig, m); diff != "" {
		t.Errorf("matrix modified (-want +got):\n%s", diff)
	}
}

func TestDraw_Colors(t *testing.T) {
	tests := []struct {
		order  imaging.ChannelOrder
		green  []byte
		yellow []byte
	}{
		{imaging.OrderBGRA, []byte{0, 255, 0, 255}, []byte{0, 255, 255, 255}},
		{imaging.OrderRGBA, []byte{0, 255, 0, 255}, []byte{255, 255, 0, 255}},
		{imaging.OrderBGR, []byte{0, 255, 0}, []byte{0, 255, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.order.String(), func(t *testing.T) {
			m := createTestMatrix(50, 50, tt.order)
			out := NewRenderer().Draw(m, testQuad)

			for _, p := range testQuad.Points {
				if got := pixelAt(out, p.X, p.Y); !bytes.Equal(got, tt.yellow) {
					t.Errorf("marker at %v: got %v, want %v", p, got, tt.yellow)
				}
				// Still inside the radius-5 disc.
				if got := pixelAt(out, p.X+3, p.Y+3); !bytes.Equal(got, tt.yellow) {
					t.Errorf("marker body near %v: got %v, want %v", p, got, tt.yellow)
				}
			}

			// Midpoints of each side lie on the outline, away from markers.
			for _, p := range []image.Point{{10, 25}, {25, 40}, {40, 25}, {25, 10}} {
				if got := pixelAt(out, p.X, p.Y); !bytes.Equal(got, tt.green) {
					t.Errorf("outline at %v: got %v, want %v", p, got, tt.green)
				}
			}

			// Interior and far exterior stay untouched.
			for _, p := range []image.Point{{25, 25}, {2, 2}, {48, 48}} {
				if got, want := pixelAt(out, p.X, p.Y), pixelAt(m, p.X, p.Y); !bytes.Equal(got, want) {
					t.Errorf("pixel %v: got %v, want unchanged %v", p, got, want)
				}
			}
		})
	}
}

func TestDraw_LineWidth(t *testing.T) {
	m := createTestMatrix(50, 50, imaging.OrderBGRA)
	out := NewRenderer().Draw(m, testQuad)

	// A vertical side two pixels wide: columns 9 and 10 at y=25.
	count := 0
	for x := 5; x <= 15; x++ {
		if pixelAt(out, x, 25)[1] == 255 {
			count++
		}
	}
	if count != DefaultLineWidth {
		t.Errorf("outline width: got %d px, want %d", count, DefaultLineWidth)
	}
}

func TestDraw_DoesNotModifyInput(t *testing.T) {
	m := createTestMatrix(50, 50, imaging.OrderBGRA)
	orig := m.Clone()

	out := NewRenderer().Draw(m, testQuad)
	if out == m {
		t.Fatal("Draw should return a new matrix when a quad is present")
	}
	if diff := cmp.Diff(orig, m); diff != "" {
		t.Errorf("input modified (-want +got):\n%s", diff)
	}
}

func TestDraw_ClipsOutsidePoints(t *testing.T) {
	m := createTestMatrix(20, 20, imaging.OrderBGRA)
	q := &detection.Quad{Points: [4]image.Point{{-10, -10}, {-10, 30}, {30, 30}, {19, 0}}}

	out := NewRenderer().Draw(m, q)
	if err := out.Validate(); err != nil {
		t.Fatalf("invalid output: %v", err)
	}
	if got := pixelAt(out, 19, 0); !bytes.Equal(got, []byte{0, 255, 255, 255}) {
		t.Errorf("marker at (19,0): got %v", got)
	}
}

func TestDraw_MalformedMatrix(t *testing.T) {
	m := &imaging.Matrix{Width: 4, Height: 4, Channels: 4, Order: imaging.OrderBGRA, Pix: make([]byte, 3)}
	if out := NewRenderer().Draw(m, testQuad); out != m {
		t.Error("Draw should return a malformed matrix untouched")
	}
}
