package source

import (
	"fmt"

	"github.com/ironsheep/quadcam/internal/imaging"
)

// StillCamera republishes one decoded image at the camera rate. Useful for
// running the pipeline against a photo of a document or a board.
type StillCamera struct {
	*stream

	path  string
	frame *imaging.RawFrame
}

// OpenStillCamera decodes path once through cache and returns a stopped
// camera publishing it into out. A nil cache gets a private one.
func OpenStillCamera(path string, fps int, origin imaging.Origin, cache *imaging.ImageCache, out Publisher) (*StillCamera, error) {
	if cache == nil {
		cache = imaging.NewImageCache()
	}
	frame, err := cache.LoadFrame(path, origin)
	if err != nil {
		return nil, fmt.Errorf("failed to open still camera: %w", err)
	}

	s, err := newStream("still", frame.Width, frame.Height, fps, origin, out)
	if err != nil {
		return nil, err
	}
	c := &StillCamera{stream: s, path: path, frame: frame}
	s.render = c.render
	return c, nil
}

// Path returns the image file the camera shows.
func (c *StillCamera) Path() string {
	return c.path
}

// render returns a new frame header over the shared, never-modified pixels.
func (c *StillCamera) render(uint64) *imaging.RawFrame {
	f := *c.frame
	return &f
}
