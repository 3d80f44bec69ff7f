package detection

import (
	"fmt"

	"github.com/ironsheep/quadcam/internal/imaging"
)

// Backend names accepted by NewBackend.
const (
	BackendGo     = "go"
	BackendOpenCV = "opencv"
)

// Finder is implemented by every detector backend.
type Finder interface {
	Detect(m *imaging.Matrix) (*Quad, error)
}

// NewBackend returns the detector registered under name. An empty name
// selects the pure-Go detector.
func NewBackend(name string) (Finder, error) {
	switch name {
	case "", BackendGo:
		return NewDetector(), nil
	case BackendOpenCV:
		d, err := NewOpenCVDetector()
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown detector backend %q", name)
	}
}
