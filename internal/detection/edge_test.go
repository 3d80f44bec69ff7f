package detection

import (
	"image"
	"math"
	"testing"

	"github.com/ironsheep/quadcam/internal/imaging"
)

func TestLuma_ChannelOrder(t *testing.T) {
	tests := []struct {
		name  string
		order imaging.ChannelOrder
		pixel []byte
		want  uint8
	}{
		{"BGRA red", imaging.OrderBGRA, []byte{0, 0, 255, 255}, 76},
		{"BGR green", imaging.OrderBGR, []byte{0, 255, 0}, 150},
		{"BGRA blue", imaging.OrderBGRA, []byte{255, 0, 0, 255}, 29},
		{"RGBA red", imaging.OrderRGBA, []byte{255, 0, 0, 255}, 76},
		{"white", imaging.OrderBGRA, []byte{255, 255, 255, 255}, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := imaging.NewMatrix(1, 1, tt.order)
			copy(m.Pix, tt.pixel)
			if got := luma(m).GrayAt(0, 0).Y; got != tt.want {
				t.Errorf("luma: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGaussianKernel(t *testing.T) {
	k := gaussianKernel(5)
	if k.Width != 5 || k.Height != 1 {
		t.Fatalf("size: got %dx%d, want 5x1", k.Width, k.Height)
	}

	var sum float64
	for _, v := range k.Matrix {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("kernel sum: got %v, want 1", sum)
	}

	center := k.Matrix[2]
	for i, v := range k.Matrix {
		if v > center {
			t.Errorf("weight %d (%v) exceeds the centre weight %v", i, v, center)
		}
	}
	if k.Matrix[0] != k.Matrix[4] || k.Matrix[1] != k.Matrix[3] {
		t.Error("kernel is not symmetric")
	}
}

func TestBlur_UniformStaysUniform(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 12, 9))
	for i := range gray.Pix {
		gray.Pix[i] = 90
	}

	vals := blur(gray)
	for i, v := range vals {
		if math.Abs(v-vals[0]) > 0 {
			t.Fatalf("pixel %d: got %v, want %v", i, v, vals[0])
		}
	}
	if math.Abs(vals[0]-90) > 1 {
		t.Errorf("level: got %v, want about 90", vals[0])
	}
}

func TestCanny_VerticalStep(t *testing.T) {
	const w, h = 20, 10
	m := createTestMatrix(w, h, 0)
	for y := 0; y < h; y++ {
		for x := w / 2; x < w; x++ {
			i := m.Offset(x, y)
			m.Pix[i], m.Pix[i+1], m.Pix[i+2] = 255, 255, 255
		}
	}

	edges := detectEdges(m)
	for y := 0; y < h; y++ {
		var cols []int
		for x := 0; x < w; x++ {
			if edges.at(x, y) {
				cols = append(cols, x)
			}
		}
		if y == 0 || y == h-1 {
			if len(cols) != 0 {
				t.Errorf("border row %d: got edges at %v", y, cols)
			}
			continue
		}
		if len(cols) != 1 || (cols[0] != w/2-1 && cols[0] != w/2) {
			t.Errorf("row %d: got edges at %v, want a single column at the step", y, cols)
		}
	}
}

func TestCanny_LowContrastIgnored(t *testing.T) {
	m := createTestMatrix(20, 10, 100)
	for y := 0; y < 10; y++ {
		for x := 10; x < 20; x++ {
			i := m.Offset(x, y)
			m.Pix[i], m.Pix[i+1], m.Pix[i+2] = 105, 105, 105
		}
	}

	if n := detectEdges(m).count(); n != 0 {
		t.Errorf("edges: got %d, want 0 for a 5-level step", n)
	}
}

func TestBridgeGaps_ClosesOnePixelGap(t *testing.T) {
	edges := createEdgeMap(
		".........",
		".######..",
		".#....#..",
		".#.......",
		".#....#..",
		".#....#..",
		".######..",
		".........",
	)

	if q := selectQuad(findExternalContours(edges)); q != nil {
		t.Fatalf("open outline: got quad %v, want none", q.Points)
	}

	bridgeGaps(edges)
	if !edges.at(6, 3) {
		t.Fatal("gap at (6,3) was not closed")
	}
	if n := edges.count(); n != 20 {
		t.Errorf("edge pixels: got %d, want 20", n)
	}

	q := selectQuad(findExternalContours(edges))
	if q == nil {
		t.Fatal("closed outline: expected a quad, got none")
	}
	if got := q.HullArea(); got != 25 {
		t.Errorf("HullArea: got %v, want 25", got)
	}
}

func TestBridgeGaps_LeavesCleanEdgesAlone(t *testing.T) {
	tests := []struct {
		name string
		rows []string
	}{
		{"closed rectangle", []string{
			"........",
			".#####..",
			".#...#..",
			".#...#..",
			".#####..",
			"........",
		}},
		{"separate segments", []string{
			"..........",
			".###..###.",
			"..........",
		}},
		{"diagonal", []string{
			"......",
			".#....",
			"..#...",
			"...#..",
			"......",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges := createEdgeMap(tt.rows...)
			before := edges.count()
			bridgeGaps(edges)
			if got := edges.count(); got != before {
				t.Errorf("edge pixels: got %d, want %d", got, before)
			}
		})
	}
}
