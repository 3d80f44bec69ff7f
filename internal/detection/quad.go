package detection

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/ironsheep/quadcam/internal/imaging"
)

// ErrDetection wraps failures inside the detector. A frame that produces it
// is shown without an overlay; the next frame is processed normally.
var ErrDetection = errors.New("detection failed")

// ErrBackendUnavailable is returned when a detector backend was not compiled
// into the binary.
var ErrBackendUnavailable = errors.New("detector backend unavailable")

// EpsilonFactor scales the closed contour perimeter into the polygon
// approximation tolerance.
const EpsilonFactor = 0.02

// Quad is the most prominent four-cornered outline found in a frame.
//
// Points are in matrix coordinates (top-left origin) in the order produced by
// the polygon approximation. They are not sorted by corner. The source
// contour's area and perimeter only rank and simplify contours and are not
// kept.
type Quad struct {
	Points [4]image.Point
}

// HullArea returns the area of the convex hull of the four points, computed
// with Andrew's monotone chain and the shoelace formula.
func (q *Quad) HullArea() float64 {
	return polygonArea(convexHull(q.Points[:]))
}

// Detector finds the single most prominent quadrilateral in a frame.
//
// Parameters are fixed: 5×5 Gaussian smoothing, Canny thresholds 30 and 150,
// and a polygon tolerance of 2% of the contour perimeter. A Detector holds no
// state between calls and may be shared between goroutines.
type Detector struct{}

// NewDetector returns the pure-Go detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns the quadrilateral outline of the largest external contour
// in m.
//
// Returns:
//   - *Quad: The four vertices, or nil when no contour exists or the largest
//     contour does not simplify to exactly four vertices.
//   - error: Non-nil, wrapping ErrDetection, when m is malformed or a stage
//     fails. The quad is nil in that case.
//
// # Algorithm
//
//  1. Luma: BT.601 grayscale.
//  2. Smoothing: 5×5 Gaussian (sigma 1.1).
//  3. Edges: Canny with hysteresis thresholds 30 and 150, then curve ends
//     one pixel apart are bridged.
//  4. Contours: outer borders of edge components not nested in another.
//  5. Selection: the contour with the largest enclosed area; the first one
//     found wins a tie.
//  6. Approximation: closed Douglas-Peucker with epsilon equal to
//     EpsilonFactor times the contour perimeter.
//  7. Acceptance: exactly four vertices.
//
// The result depends only on the pixel values of m.
func (d *Detector) Detect(m *imaging.Matrix) (q *Quad, err error) {
	defer func() {
		if r := recover(); r != nil {
			q = nil
			err = fmt.Errorf("%w: %v", ErrDetection, r)
		}
	}()

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetection, err)
	}

	contours := findExternalContours(detectEdges(m))
	return selectQuad(contours), nil
}

// selectQuad applies steps 5 to 7 to a contour list.
func selectQuad(contours []contour) *Quad {
	best := -1
	bestArea := 0.0
	for i, c := range contours {
		a := polygonArea(c.points)
		if best < 0 || a > bestArea {
			best, bestArea = i, a
		}
	}
	if best < 0 {
		return nil
	}

	pts := contours[best].points
	perimeter := arcLength(pts)
	approx := approxClosed(pts, EpsilonFactor*perimeter)
	if len(approx) != 4 {
		return nil
	}

	q := &Quad{}
	copy(q.Points[:], approx)
	return q
}

// convexHull returns the convex hull of points in counter-clockwise order
// (Andrew's monotone chain). Collinear points are dropped.
func convexHull(points []image.Point) []image.Point {
	pts := append([]image.Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	if len(pts) < 3 {
		return pts
	}

	cross := func(o, a, b image.Point) int {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	hull := make([]image.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}
