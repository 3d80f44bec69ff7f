//go:build !gocv

package detection

import (
	"errors"
	"testing"
)

func TestNewBackend_OpenCVUnavailable(t *testing.T) {
	f, err := NewBackend(BackendOpenCV)
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("got %v, want ErrBackendUnavailable", err)
	}
	if f != nil {
		t.Errorf("got detector %T with error", f)
	}
}
