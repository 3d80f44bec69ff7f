package detection

import (
	"image"
	"math"
)

// Moore neighbourhood, counter-clockwise on screen starting east.
var neighbors = [8]image.Point{
	{1, 0}, {1, -1}, {0, -1}, {-1, -1},
	{-1, 0}, {-1, 1}, {0, 1}, {1, 1},
}

const dirWest = 4

// contour is a closed border polygon in traversal order.
type contour struct {
	points []image.Point
	bounds image.Rectangle
}

// findExternalContours returns the outer border of every 8-connected edge
// component that does not lie inside another component's outer border.
//
// # Algorithm
//
//  1. Components: edge pixels are grouped with an iterative 8-connected
//     flood fill, scanning in raster order, so each component is first met
//     at its topmost-leftmost pixel.
//
//  2. Border following: from that pixel (whose west neighbour is always
//     background) the outer border is traced with Suzuki-Abe border
//     following. A one-pixel-wide run is walked out and back, so every
//     component yields one closed sequence.
//
//  3. Nesting: a component whose first pixel falls strictly inside the
//     outer border of another component is dropped.
//
//  4. Compression: only points where the chain direction changes are kept.
//
// Contours are returned in the raster order of their starting pixels.
func findExternalContours(edges *edgeMap) []contour {
	w, h := edges.width, edges.height
	visited := make([]bool, w*h)

	var all []contour
	var starts []image.Point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if !edges.on[i] || visited[i] {
				continue
			}
			markComponent(edges, visited, x, y)
			start := image.Pt(x, y)
			border := traceBorder(edges, start)
			all = append(all, contour{points: border, bounds: boundsOf(border)})
			starts = append(starts, start)
		}
	}

	external := make([]contour, 0, len(all))
	for i, c := range all {
		nested := false
		for j, outer := range all {
			if i == j || len(outer.points) < 3 {
				continue
			}
			if !starts[i].In(outer.bounds) {
				continue
			}
			if pointInPolygon(starts[i], outer.points) {
				nested = true
				break
			}
		}
		if !nested {
			external = append(external, contour{points: compressChain(c.points), bounds: c.bounds})
		}
	}
	return external
}

// markComponent flood-fills the 8-connected component containing (x, y).
func markComponent(edges *edgeMap, visited []bool, startX, startY int) {
	w := edges.width
	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !edges.at(p.X, p.Y) || visited[p.Y*w+p.X] {
			continue
		}
		visited[p.Y*w+p.X] = true

		for _, d := range neighbors {
			stack = append(stack, p.Add(d))
		}
	}
}

// traceBorder follows the outer border starting at p0, the topmost-leftmost
// pixel of its component.
func traceBorder(edges *edgeMap, p0 image.Point) []image.Point {
	// Search clockwise from the west neighbour for the first edge pixel.
	i1 := -1
	for k := 0; k < 8; k++ {
		d := (dirWest - k + 8) % 8
		if edges.at(p0.X+neighbors[d].X, p0.Y+neighbors[d].Y) {
			i1 = d
			break
		}
	}
	if i1 < 0 {
		return []image.Point{p0}
	}

	first := p0.Add(neighbors[i1])
	prev := first
	cur := p0
	points := []image.Point{}

	// Each iteration is bounded by the component size; the cap guards
	// against malformed maps.
	limit := 4*len(edges.on) + 8
	for step := 0; step < limit; step++ {
		// Direction from cur back to prev, then search counter-clockwise
		// starting just after it.
		back := dirTo(cur, prev)
		var next image.Point
		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			q := cur.Add(neighbors[d])
			if edges.at(q.X, q.Y) {
				next = q
				break
			}
		}

		points = append(points, cur)
		if next == p0 && cur == first {
			break
		}
		prev, cur = cur, next
	}
	return points
}

// dirTo returns the neighbour index d such that from + neighbors[d] == to.
func dirTo(from, to image.Point) int {
	delta := to.Sub(from)
	for d, n := range neighbors {
		if n == delta {
			return d
		}
	}
	return 0
}

// compressChain keeps only the points of a closed chain where the step
// direction changes.
func compressChain(points []image.Point) []image.Point {
	n := len(points)
	if n <= 2 {
		return append([]image.Point(nil), points...)
	}

	out := make([]image.Point, 0, n/2+1)
	for i := 0; i < n; i++ {
		prev := points[(i-1+n)%n]
		next := points[(i+1)%n]
		in := points[i].Sub(prev)
		outDir := next.Sub(points[i])
		if in != outDir {
			out = append(out, points[i])
		}
	}
	if len(out) == 0 {
		return append([]image.Point(nil), points...)
	}
	return out
}

// polygonArea returns the absolute area enclosed by a closed polygon using
// the shoelace formula.
func polygonArea(points []image.Point) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a := points[i]
		b := points[(i+1)%n]
		sum += float64(a.X*b.Y - b.X*a.Y)
	}
	return math.Abs(sum) / 2
}

// arcLength returns the perimeter of a closed polygon.
func arcLength(points []image.Point) float64 {
	n := len(points)
	if n < 2 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a := points[i]
		b := points[(i+1)%n]
		sum += math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
	}
	return sum
}

// pointInPolygon reports whether p lies strictly inside the closed polygon
// using even-odd ray casting along +X. Points on the polygon are outside.
func pointInPolygon(p image.Point, poly []image.Point) bool {
	inside := false
	n := len(poly)
	px, py := float64(p.X), float64(p.Y)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if a == p {
			return false
		}
		ay, by := float64(a.Y), float64(b.Y)
		if (ay > py) != (by > py) {
			ax, bx := float64(a.X), float64(b.X)
			xCross := ax + (py-ay)*(bx-ax)/(by-ay)
			if px < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

func boundsOf(points []image.Point) image.Rectangle {
	if len(points) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: points[0], Max: points[0].Add(image.Pt(1, 1))}
	for _, p := range points[1:] {
		r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	return r
}
