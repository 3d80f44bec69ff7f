package detection

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"

	"github.com/ironsheep/quadcam/internal/imaging"
)

// Fixed edge detection parameters.
const (
	blurKernelSize = 5
	cannyLow       = 30.0
	cannyHigh      = 150.0
)

// tan(22.5°) and tan(67.5°), the sector boundaries used by non-maximum
// suppression.
const (
	tan22 = 0.41421356237
	tan67 = 2.41421356237
)

// edgeMap is a binary edge image in row-major order.
type edgeMap struct {
	width  int
	height int
	on     []bool
}

func (e *edgeMap) at(x, y int) bool {
	if x < 0 || y < 0 || x >= e.width || y >= e.height {
		return false
	}
	return e.on[y*e.width+x]
}

func (e *edgeMap) count() int {
	n := 0
	for _, v := range e.on {
		if v {
			n++
		}
	}
	return n
}

// luma converts a matrix to an 8-bit grayscale image using ITU-R BT.601
// weights (0.299*R + 0.587*G + 0.114*B), honouring the matrix channel order.
func luma(m *imaging.Matrix) *image.Gray {
	ri, gi, bi := 2, 1, 0
	if m.Order == imaging.OrderRGBA {
		ri, bi = 0, 2
	}

	gray := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := m.Offset(x, y)
			v := 0.299*float64(m.Pix[i+ri]) + 0.587*float64(m.Pix[i+gi]) + 0.114*float64(m.Pix[i+bi])
			gray.Pix[y*gray.Stride+x] = uint8(math.Round(v))
		}
	}
	return gray
}

// gaussianKernel builds a normalised size×1 Gaussian kernel. The sigma is
// derived from the size the way OpenCV does when none is given:
// 0.3*((size-1)*0.5-1)+0.8, which is 1.1 for a 5-tap kernel.
func gaussianKernel(size int) *convolution.Kernel {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	half := size / 2

	k := convolution.NewKernel(size, 1)
	var sum float64
	for i := range k.Matrix {
		d := float64(i - half)
		k.Matrix[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k.Matrix[i]
	}
	for i := range k.Matrix {
		k.Matrix[i] /= sum
	}
	return k
}

// blur smooths a grayscale image with the detector's Gaussian kernel and
// returns the result as a row-major float slice. The kernel is separable, so
// it is applied as a horizontal pass followed by its transpose, with
// replicated borders.
func blur(gray *image.Gray) []float64 {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	k := gaussianKernel(blurKernelSize)
	kt := k.Transposed()

	row := make([]float64, k.MaxX())
	for i := range row {
		row[i] = k.At(i, 0)
	}
	col := make([]float64, kt.MaxY())
	for i := range col {
		col[i] = kt.At(0, i)
	}
	rx, ry := len(row)/2, len(col)/2

	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		src := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for x := 0; x < w; x++ {
			var v float64
			for i, c := range row {
				v += c * float64(src[clamp(x+i-rx, 0, w-1)])
			}
			tmp[y*w+x] = v
		}
	}

	vals := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v float64
			for i, c := range col {
				v += c * tmp[clamp(y+i-ry, 0, h-1)*w+x]
			}
			vals[y*w+x] = v
		}
	}
	return vals
}

// canny detects edges in a smoothed grayscale field.
//
// # Algorithm
//
//  1. Gradient: 3×3 Sobel operators with replicated borders; magnitude is
//     the L1 norm |Gx| + |Gy|.
//
//  2. Non-maximum suppression: each pixel is compared with its two
//     neighbours along the gradient, quantised to 0°, 45°, 90° or 135°. A
//     pixel survives if it is strictly greater than the first neighbour and
//     not smaller than the second, so plateaus thin to one pixel.
//
//  3. Hysteresis: pixels above high are edges; pixels above low are edges
//     only when 8-connected, directly or through other such pixels, to an
//     edge above high.
//
// Pixels on the outermost row and column are never edges.
func canny(vals []float64, width, height int, low, high float64) *edgeMap {
	mag := make([]float64, width*height)
	gxs := make([]float64, width*height)
	gys := make([]float64, width*height)

	px := func(x, y int) float64 {
		return vals[clamp(y, 0, height-1)*width+clamp(x, 0, width-1)]
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := -px(x-1, y-1) + px(x+1, y-1) -
				2*px(x-1, y) + 2*px(x+1, y) -
				px(x-1, y+1) + px(x+1, y+1)
			gy := -px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1) +
				px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1)
			i := y*width + x
			gxs[i], gys[i] = gx, gy
			mag[i] = math.Abs(gx) + math.Abs(gy)
		}
	}

	// Non-maximum suppression.
	thin := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			m := mag[i]
			if m <= low {
				continue
			}
			ax, ay := math.Abs(gxs[i]), math.Abs(gys[i])

			var n1, n2 float64
			switch {
			case ay <= ax*tan22:
				n1, n2 = mag[i-1], mag[i+1]
			case ay > ax*tan67:
				n1, n2 = mag[i-width], mag[i+width]
			case gxs[i]*gys[i] > 0:
				n1, n2 = mag[i-width-1], mag[i+width+1]
			default:
				n1, n2 = mag[i-width+1], mag[i+width-1]
			}

			if m > n1 && m >= n2 {
				thin[i] = m
			}
		}
	}

	// Hysteresis: flood from strong pixels through weak ones.
	edges := &edgeMap{width: width, height: height, on: make([]bool, width*height)}
	stack := make([]int, 0, 256)
	for i, v := range thin {
		if v > high && !edges.on[i] {
			edges.on[i] = true
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				j := ny*width + nx
				if !edges.on[j] && thin[j] > low {
					edges.on[j] = true
					stack = append(stack, j)
				}
			}
		}
	}

	return edges
}

// bridgeGaps restores single missing pixels between curve ends.
// Suppression at a sharp corner can remove one pixel of a closed outline,
// leaving two ends two pixels apart; border following would then walk the
// open curve out and back and see no area. Each pair of ends at chessboard
// distance 2 gets the pixel between them. Bridges are collected before any
// is applied so the result does not depend on scan order.
func bridgeGaps(e *edgeMap) {
	w, h := e.width, e.height
	ends := make([]bool, w*h)
	var list []image.Point
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			if e.on[y*w+x] && e.isEnd(x, y) {
				ends[y*w+x] = true
				list = append(list, image.Pt(x, y))
			}
		}
	}

	var fill []int
	for _, a := range list {
		for dy := 0; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				if dy == 0 && dx <= 0 {
					continue
				}
				if abs(dx) != 2 && dy != 2 {
					continue
				}
				bx, by := a.X+dx, a.Y+dy
				if bx < 1 || by < 1 || bx >= w-1 || by >= h-1 || !ends[by*w+bx] {
					continue
				}
				i := (a.Y+sign(dy))*w + a.X + sign(dx)
				if !e.on[i] {
					fill = append(fill, i)
				}
			}
		}
	}
	for _, i := range fill {
		e.on[i] = true
	}
}

// isEnd reports whether the edge pixel at (x, y) terminates a curve: it has
// a single 8-neighbour, or two neighbours that touch each other.
func (e *edgeMap) isEnd(x, y int) bool {
	var nb [8]image.Point
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if (dx != 0 || dy != 0) && e.at(x+dx, y+dy) {
				if n == 2 {
					return false
				}
				nb[n] = image.Pt(dx, dy)
				n++
			}
		}
	}
	switch n {
	case 1:
		return true
	case 2:
		return abs(nb[0].X-nb[1].X)+abs(nb[0].Y-nb[1].Y) == 1
	}
	return false
}

// detectEdges runs luma conversion, Gaussian smoothing and Canny on m, then
// closes one-pixel gaps in the result.
func detectEdges(m *imaging.Matrix) *edgeMap {
	edges := canny(blur(luma(m)), m.Width, m.Height, cannyLow, cannyHigh)
	bridgeGaps(edges)
	return edges
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
