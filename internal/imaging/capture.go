package imaging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
)

// Capture file naming: prefix + local time to the second + extension.
const (
	CapturePrefix     = "IMG_"
	CaptureTimeLayout = "20060102_150405"
	CaptureExt        = ".png"
)

// CaptureName returns the file name used for a capture taken at t.
func CaptureName(t time.Time) string {
	return CapturePrefix + t.Local().Format(CaptureTimeLayout) + CaptureExt
}

// SaveFrame writes the visual representation of frame into dir as a PNG
// named by CaptureName(t) and returns the full path.
//
// Bottom-left frames are flipped so the file is upright. A capture taken in
// the same second as a previous one replaces it.
func SaveFrame(frame *RawFrame, dir string, t time.Time) (string, error) {
	img, err := frame.Upright()
	if err != nil {
		return "", err
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create capture directory: %w", err)
		}
	}

	path := filepath.Join(dir, CaptureName(t))
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("failed to save capture: %w", err)
	}
	return path, nil
}
