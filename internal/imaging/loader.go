package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"sync"

	"github.com/disintegration/imaging"
)

// ImageCache provides thread-safe caching of decoded still images, keyed by
// file path. It backs the still-image camera, which republishes the same
// picture at the camera frame rate and should only touch the disk once.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or
// Clear().
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	frame, err := cache.LoadFrame("/path/to/board.png", imaging.TopLeft)
//	if err != nil {
//	    log.Fatal(err)
//	}
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*image.NRGBA
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*image.NRGBA),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// Parameters:
//   - path: Absolute or relative file path. Supported formats are PNG, JPEG
//     and GIF.
//
// Returns:
//   - *image.NRGBA: The decoded image normalised to non-premultiplied RGBA
//     with its minimum point at (0, 0). Callers must not modify it.
//   - error: Non-nil if the file cannot be opened or decoded.
func (c *ImageCache) Load(path string) (*image.NRGBA, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	decoded, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	img := imaging.Clone(decoded)

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// LoadFrame loads path and lays it out as a display buffer with the given
// origin. The returned frame owns its payload.
func (c *ImageCache) LoadFrame(path string, origin Origin) (*RawFrame, error) {
	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	return FrameFromImage(img, origin), nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*image.NRGBA)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// FrameFromImage copies img into a new RGBA display buffer. For BottomLeft
// the rows are stored bottom-up.
func FrameFromImage(img image.Image, origin Origin) *RawFrame {
	var nrgba *image.NRGBA
	if origin == BottomLeft {
		nrgba = imaging.FlipV(img)
	} else {
		nrgba = imaging.Clone(img)
	}
	b := nrgba.Bounds()
	return &RawFrame{
		Width:  b.Dx(),
		Height: b.Dy(),
		Origin: origin,
		Pix:    nrgba.Pix,
	}
}
