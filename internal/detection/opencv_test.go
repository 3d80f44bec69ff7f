//go:build gocv

package detection

import (
	"math"
	"testing"
)

func TestOpenCVDetector_RotatedSquare(t *testing.T) {
	d, err := NewOpenCVDetector()
	if err != nil {
		t.Fatalf("NewOpenCVDetector failed: %v", err)
	}

	m, _ := createRotatedSquareMatrix(200, 120, 20)
	q, err := d.Detect(m)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if q == nil {
		t.Fatal("expected a quad, got none")
	}
	want := 120.0 * 120.0
	if got := q.HullArea(); math.Abs(got-want)/want > 0.10 {
		t.Errorf("HullArea: got %.0f, want %.0f ±10%%", got, want)
	}
}

func TestOpenCVDetector_UniformFrame(t *testing.T) {
	d, _ := NewOpenCVDetector()
	q, err := d.Detect(createTestMatrix(64, 48, 128))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if q != nil {
		t.Errorf("got quad %v, want none", q.Points)
	}
}
