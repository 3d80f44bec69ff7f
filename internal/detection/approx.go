package detection

import (
	"image"
	"math"
)

// pivotIterations bounds the search for two mutually distant points that
// split a closed curve into two open arcs.
const pivotIterations = 3

// approxClosed simplifies a closed polygon with the Douglas-Peucker
// algorithm. Vertices whose distance to the simplified outline is at most
// epsilon are dropped.
//
// # Algorithm
//
//  1. Pivots: starting from the first point, repeatedly jump to the point
//     farthest from the current one. The last two points visited split the
//     curve into two arcs.
//
//  2. Each arc is simplified as an open polyline: the point farthest from
//     the chord is kept when its distance exceeds epsilon, and both halves
//     are simplified recursively.
//
//  3. Clean-up: a vertex lying within epsilon of the line through its two
//     neighbours is removed, until no such vertex remains or only three are
//     left.
//
// The result starts at the lower-index pivot and follows the input order.
func approxClosed(points []image.Point, epsilon float64) []image.Point {
	n := len(points)
	if n <= 2 {
		return append([]image.Point(nil), points...)
	}

	a := 0
	b := farthestFrom(points, a)
	for i := 0; i < pivotIterations; i++ {
		c := farthestFrom(points, b)
		if c == a {
			break
		}
		a, b = b, c
	}
	if points[a] == points[b] {
		return []image.Point{points[0]}
	}
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}

	arc1 := points[lo : hi+1]
	arc2 := make([]image.Point, 0, n-hi+lo+1)
	arc2 = append(arc2, points[hi:]...)
	arc2 = append(arc2, points[:lo+1]...)

	s1 := simplifyOpen(arc1, epsilon)
	s2 := simplifyOpen(arc2, epsilon)

	out := make([]image.Point, 0, len(s1)+len(s2))
	out = append(out, s1[:len(s1)-1]...)
	out = append(out, s2[:len(s2)-1]...)

	return removeCollinear(out, epsilon)
}

// simplifyOpen applies Douglas-Peucker to an open polyline, always keeping
// both end points.
func simplifyOpen(points []image.Point, epsilon float64) []image.Point {
	n := len(points)
	if n <= 2 {
		return append([]image.Point(nil), points...)
	}

	first, last := points[0], points[n-1]
	idx, maxDist := -1, 0.0
	for i := 1; i < n-1; i++ {
		d := lineDistance(points[i], first, last)
		if d > maxDist {
			idx, maxDist = i, d
		}
	}

	if idx < 0 || maxDist <= epsilon {
		return []image.Point{first, last}
	}

	left := simplifyOpen(points[:idx+1], epsilon)
	right := simplifyOpen(points[idx:], epsilon)
	return append(left[:len(left)-1], right...)
}

func removeCollinear(points []image.Point, epsilon float64) []image.Point {
	out := append([]image.Point(nil), points...)
	for changed := true; changed && len(out) > 3; {
		changed = false
		for i := 0; i < len(out) && len(out) > 3; i++ {
			n := len(out)
			prev := out[(i-1+n)%n]
			next := out[(i+1)%n]
			if lineDistance(out[i], prev, next) <= epsilon {
				out = append(out[:i], out[i+1:]...)
				changed = true
				i--
			}
		}
	}
	return out
}

// farthestFrom returns the index of the point farthest from points[from].
// Ties keep the lowest index.
func farthestFrom(points []image.Point, from int) int {
	p := points[from]
	best, bestDist := from, -1
	for i, q := range points {
		dx, dy := q.X-p.X, q.Y-p.Y
		if d := dx*dx + dy*dy; d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// lineDistance returns the perpendicular distance from p to the line
// through a and b, or the distance to a when a and b coincide.
func lineDistance(p, a, b image.Point) float64 {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	px, py := float64(p.X-a.X), float64(p.Y-a.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return math.Hypot(px, py)
	}
	return math.Abs(dx*py-dy*px) / length
}
