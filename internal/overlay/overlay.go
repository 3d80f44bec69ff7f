// Package overlay draws a detected quadrilateral onto a processing matrix.
package overlay

import (
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/quadcam/internal/detection"
	"github.com/ironsheep/quadcam/internal/imaging"
)

// Default overlay style.
const (
	DefaultLineWidth    = 2
	DefaultMarkerRadius = 5
)

// Default overlay colours.
var (
	Green  = colorful.Color{R: 0, G: 1, B: 0}
	Yellow = colorful.Color{R: 1, G: 1, B: 0}
)

// Renderer annotates frames with a quad outline and corner markers.
type Renderer struct {
	LineColor    colorful.Color
	MarkerColor  colorful.Color
	LineWidth    int
	MarkerRadius int
}

// NewRenderer returns a renderer with a green 2 px outline and yellow
// 5 px corner markers.
func NewRenderer() *Renderer {
	return &Renderer{
		LineColor:    Green,
		MarkerColor:  Yellow,
		LineWidth:    DefaultLineWidth,
		MarkerRadius: DefaultMarkerRadius,
	}
}

// Draw returns m annotated with q.
//
// When q is nil, or m is malformed, m itself is returned untouched.
// Otherwise the closed polygon through the four points (in order) and a
// filled disc at each point are drawn onto a copy of m; markers are drawn
// last so they sit on top of the outline. Parts outside the matrix are
// clipped.
func (r *Renderer) Draw(m *imaging.Matrix, q *detection.Quad) *imaging.Matrix {
	if q == nil || m.Validate() != nil {
		return m
	}

	out := m.Clone()
	line := newPen(out, r.LineColor)
	for i := range q.Points {
		a := q.Points[i]
		b := q.Points[(i+1)%len(q.Points)]
		line.segment(a, b, r.LineWidth)
	}

	marker := newPen(out, r.MarkerColor)
	for _, p := range q.Points {
		marker.disc(p, r.MarkerRadius)
	}
	return out
}

// pen writes a single colour into a matrix in its channel order.
type pen struct {
	m     *imaging.Matrix
	pixel []byte
}

func newPen(m *imaging.Matrix, c colorful.Color) *pen {
	r, g, b := c.Clamped().RGB255()

	var pixel []byte
	switch m.Order {
	case imaging.OrderRGBA:
		pixel = []byte{r, g, b, 255}
	case imaging.OrderBGR:
		pixel = []byte{b, g, r}
	default:
		pixel = []byte{b, g, r, 255}
	}
	return &pen{m: m, pixel: pixel}
}

func (p *pen) set(x, y int) {
	if x < 0 || y < 0 || x >= p.m.Width || y >= p.m.Height {
		return
	}
	i := p.m.Offset(x, y)
	copy(p.m.Pix[i:i+p.m.Channels], p.pixel)
}

// segment draws a line from a to b with Bresenham's algorithm, stamping a
// width×width square brush at every step.
func (p *pen) segment(a, b image.Point, width int) {
	if width < 1 {
		width = 1
	}
	lo := -(width / 2)
	hi := lo + width - 1

	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	x, y := a.X, a.Y
	for {
		for oy := lo; oy <= hi; oy++ {
			for ox := lo; ox <= hi; ox++ {
				p.set(x+ox, y+oy)
			}
		}
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// disc fills every pixel within radius of c.
func (p *pen) disc(c image.Point, radius int) {
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= r2 {
				p.set(c.X+dx, c.Y+dy)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
