// Package detection finds the most prominent quadrilateral in a frame.
//
// The pipeline is the classic document-scanner recipe: grayscale, Gaussian
// smoothing, Canny edges, external contours, largest contour by area, and a
// closed Douglas-Peucker approximation that must collapse to exactly four
// vertices. Detector implements it in Go; OpenCVDetector runs the same steps
// through OpenCV when the binary is built with the gocv tag.
//
// # Coordinate System
//
// Quad points are matrix coordinates:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Results
//
// A nil Quad with a nil error means nothing qualified: the frame had no
// contours, or the largest one did not simplify to four vertices. Smaller
// contours are never considered as a fallback.
//
// Errors wrap ErrDetection and are transient: the caller shows the frame
// without an overlay and carries on with the next one.
//
// # Limitations
//
// Parameters are fixed. Only one quadrilateral is reported per frame, and
// results are not smoothed over time.
package detection
