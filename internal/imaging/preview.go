package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// PreviewResult contains an upright, optionally scaled copy of a frame
// encoded as base64 PNG.
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// ScaleFrame returns the frame as an upright image scaled by factor.
//
// A factor of 1 (or any non-positive value) keeps the original size. Scaled
// dimensions are clamped to at least one pixel.
func ScaleFrame(frame *RawFrame, factor float64) (*image.NRGBA, error) {
	img, err := frame.Upright()
	if err != nil {
		return nil, err
	}
	if factor == 1.0 || factor <= 0 {
		return img, nil
	}

	w := int(float64(frame.Width) * factor)
	h := int(float64(frame.Height) * factor)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}

// EncodePreview scales frame by factor and encodes the result as PNG.
func EncodePreview(frame *RawFrame, factor float64) (*PreviewResult, error) {
	img, err := ScaleFrame(frame, factor)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SaveScaled writes frame, upright and scaled by factor, to path. The format
// follows the file extension. The file is written next to path first and
// renamed into place, so readers never see a partial image.
func SaveScaled(frame *RawFrame, path string, factor float64) error {
	img, err := ScaleFrame(frame, factor)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create preview directory: %w", err)
		}
	}

	tmp := filepath.Join(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	if err := imaging.Save(img, tmp); err != nil {
		return fmt.Errorf("failed to save preview: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace preview: %w", err)
	}
	return nil
}
