//go:build !gocv

package detection

import (
	"fmt"

	"github.com/ironsheep/quadcam/internal/imaging"
)

// OpenCVDetector is the OpenCV-backed detector. This build does not include
// OpenCV; rebuild with -tags gocv to enable it.
type OpenCVDetector struct{}

// NewOpenCVDetector reports that the OpenCV backend is not compiled in.
func NewOpenCVDetector() (*OpenCVDetector, error) {
	return nil, fmt.Errorf("%w: %s (build with -tags gocv)", ErrBackendUnavailable, BackendOpenCV)
}

// Detect always fails in builds without OpenCV.
func (d *OpenCVDetector) Detect(m *imaging.Matrix) (*Quad, error) {
	return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, BackendOpenCV)
}
