package imaging

import (
	"bytes"
	"errors"
	"testing"
)

// createTestMatrix builds a matrix whose pixel bytes encode their own
// coordinates, so any misplaced pixel is detectable.
func createTestMatrix(width, height int, order ChannelOrder) *Matrix {
	m := NewMatrix(width, height, order)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := m.Offset(x, y)
			m.Pix[i] = byte(x)
			m.Pix[i+1] = byte(y)
			m.Pix[i+2] = byte(x ^ y)
			if m.Channels == 4 {
				m.Pix[i+3] = byte(x + y)
			}
		}
	}
	return m
}

func TestParseOrientation(t *testing.T) {
	for _, deg := range []int{0, 90, 180, 270} {
		o, err := ParseOrientation(deg)
		if err != nil {
			t.Errorf("ParseOrientation(%d) failed: %v", deg, err)
		}
		if int(o) != deg {
			t.Errorf("ParseOrientation(%d): got %d", deg, o)
		}
	}

	for _, deg := range []int{-90, 45, 360, 1} {
		if _, err := ParseOrientation(deg); !errors.Is(err, ErrContractViolation) {
			t.Errorf("ParseOrientation(%d): got %v, want ErrContractViolation", deg, err)
		}
	}
}

func TestNewCorrector_Invalid(t *testing.T) {
	if _, err := NewCorrector(Orientation(45)); !errors.Is(err, ErrContractViolation) {
		t.Errorf("got %v, want ErrContractViolation", err)
	}
}

func TestPlatformOrientation(t *testing.T) {
	tests := []struct {
		goos string
		want Orientation
	}{
		{"android", Rotate270},
		{"linux", Rotate0},
		{"darwin", Rotate0},
		{"windows", Rotate0},
	}
	for _, tt := range tests {
		if got := PlatformOrientation(tt.goos); got != tt.want {
			t.Errorf("PlatformOrientation(%q): got %d, want %d", tt.goos, got, tt.want)
		}
	}
}

func TestCorrector_Dimensions(t *testing.T) {
	tests := []struct {
		o            Orientation
		wantW, wantH int
	}{
		{Rotate0, 7, 3},
		{Rotate90, 3, 7},
		{Rotate180, 7, 3},
		{Rotate270, 3, 7},
	}

	for _, order := range []ChannelOrder{OrderBGRA, OrderBGR} {
		for _, tt := range tests {
			c, err := NewCorrector(tt.o)
			if err != nil {
				t.Fatalf("NewCorrector failed: %v", err)
			}
			out := c.Apply(createTestMatrix(7, 3, order))
			if out.Width != tt.wantW || out.Height != tt.wantH {
				t.Errorf("%s %d: got %dx%d, want %dx%d", order, tt.o, out.Width, out.Height, tt.wantW, tt.wantH)
			}
			if err := out.Validate(); err != nil {
				t.Errorf("%s %d: invalid output: %v", order, tt.o, err)
			}
		}
	}
}

func TestCorrector_PixelMapping(t *testing.T) {
	m := createTestMatrix(4, 2, OrderBGR)
	w, h := m.Width, m.Height

	tests := []struct {
		o   Orientation
		dst func(x, y int) (int, int)
	}{
		{Rotate90, func(x, y int) (int, int) { return y, w - 1 - x }},
		{Rotate180, func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }},
		{Rotate270, func(x, y int) (int, int) { return h - 1 - y, x }},
	}

	for _, tt := range tests {
		c, _ := NewCorrector(tt.o)
		out := c.Apply(m)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dx, dy := tt.dst(x, y)
				s := m.Offset(x, y)
				d := out.Offset(dx, dy)
				if !bytes.Equal(m.Pix[s:s+3], out.Pix[d:d+3]) {
					t.Errorf("%d: pixel (%d,%d) not found at (%d,%d)", tt.o, x, y, dx, dy)
				}
			}
		}
	}
}

func TestCorrector_PackedMatchesGeneric(t *testing.T) {
	m := createTestMatrix(5, 3, OrderBGRA)
	for _, o := range []Orientation{Rotate90, Rotate180, Rotate270} {
		packed := rotatePacked(m, o)
		generic := rotateGeneric(m, o)
		if packed.Width != generic.Width || packed.Height != generic.Height {
			t.Errorf("%d: dimensions differ: %dx%d vs %dx%d", o, packed.Width, packed.Height, generic.Width, generic.Height)
		}
		if !bytes.Equal(packed.Pix, generic.Pix) {
			t.Errorf("%d: packed and generic rotations differ", o)
		}
	}
}

func TestCorrector_FourQuarterTurns(t *testing.T) {
	c, _ := NewCorrector(Rotate90)
	for _, order := range []ChannelOrder{OrderBGRA, OrderBGR} {
		m := createTestMatrix(6, 4, order)
		out := m
		for i := 0; i < 4; i++ {
			out = c.Apply(out)
		}
		if out.Width != m.Width || out.Height != m.Height {
			t.Errorf("%s: dimensions: got %dx%d, want %dx%d", order, out.Width, out.Height, m.Width, m.Height)
		}
		if !bytes.Equal(out.Pix, m.Pix) {
			t.Errorf("%s: four quarter turns are not the identity", order)
		}
	}
}

func TestCorrector_Rotate0ReturnsInput(t *testing.T) {
	c, _ := NewCorrector(Rotate0)
	m := createTestMatrix(3, 3, OrderBGRA)
	if out := c.Apply(m); out != m {
		t.Error("Rotate0 should return the input matrix")
	}
}
