//go:build gocv

package detection

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/quadcam/internal/imaging"
)

// OpenCVDetector runs the same pipeline as Detector through OpenCV:
// CvtColor, GaussianBlur, Canny, FindContours with external retrieval and
// simple chain approximation, ContourArea, ArcLength and ApproxPolyDP.
type OpenCVDetector struct{}

// NewOpenCVDetector returns the OpenCV-backed detector.
func NewOpenCVDetector() (*OpenCVDetector, error) {
	return &OpenCVDetector{}, nil
}

// Detect has the same contract as Detector.Detect.
func (d *OpenCVDetector) Detect(m *imaging.Matrix) (q *Quad, err error) {
	defer func() {
		if r := recover(); r != nil {
			q = nil
			err = fmt.Errorf("%w: %v", ErrDetection, r)
		}
	}()

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetection, err)
	}

	matType, code := gocv.MatTypeCV8UC4, gocv.ColorBGRAToGray
	switch m.Order {
	case imaging.OrderBGR:
		matType, code = gocv.MatTypeCV8UC3, gocv.ColorBGRToGray
	case imaging.OrderRGBA:
		code = gocv.ColorRGBAToGray
	}

	src, err := gocv.NewMatFromBytes(m.Height, m.Width, matType, m.Pix)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetection, err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, code)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(blurKernelSize, blurKernelSize), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, cannyLow, cannyHigh)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	best := -1
	bestArea := 0.0
	for i := 0; i < contours.Size(); i++ {
		a := gocv.ContourArea(contours.At(i))
		if best < 0 || a > bestArea {
			best, bestArea = i, a
		}
	}
	if best < 0 {
		return nil, nil
	}

	c := contours.At(best)
	perimeter := gocv.ArcLength(c, true)
	approx := gocv.ApproxPolyDP(c, EpsilonFactor*perimeter, true)
	defer approx.Close()

	if approx.Size() != 4 {
		return nil, nil
	}

	q = &Quad{}
	copy(q.Points[:], approx.ToPoints())
	return q, nil
}
