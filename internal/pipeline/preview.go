package pipeline

import (
	"path/filepath"
	"sync/atomic"

	"github.com/ironsheep/quadcam/internal/imaging"
)

// PreviewFile is the file name ScaledPreview writes inside its directory.
const PreviewFile = "preview.png"

// ScaledPreview is a PreviewSink that keeps a downscaled PNG of the live
// view on disk, rewriting it every Every frames.
type ScaledPreview struct {
	dir   string
	every uint64
	scale float64
	n     atomic.Uint64
}

// NewScaledPreview writes every Nth frame into dir, scaled by scale.
// every < 1 is treated as 1.
func NewScaledPreview(dir string, every int, scale float64) *ScaledPreview {
	if every < 1 {
		every = 1
	}
	return &ScaledPreview{dir: dir, every: uint64(every), scale: scale}
}

// Path returns the preview file location.
func (p *ScaledPreview) Path() string {
	return filepath.Join(p.dir, PreviewFile)
}

// Preview implements PreviewSink.
func (p *ScaledPreview) Preview(frame *imaging.RawFrame) error {
	n := p.n.Add(1)
	if (n-1)%p.every != 0 {
		return nil
	}
	return imaging.SaveScaled(frame, p.Path(), p.scale)
}
