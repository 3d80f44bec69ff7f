package source

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/quadcam/internal/detection"
	"github.com/ironsheep/quadcam/internal/imaging"
	"github.com/ironsheep/quadcam/internal/pipeline"
)

type recordingPublisher struct {
	mu     sync.Mutex
	frames []*imaging.RawFrame
}

func (p *recordingPublisher) Publish(f *imaging.RawFrame) {
	p.mu.Lock()
	p.frames = append(p.frames, f)
	p.mu.Unlock()
}

func (p *recordingPublisher) snapshot() []*imaging.RawFrame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*imaging.RawFrame(nil), p.frames...)
}

func TestNewMockCamera_Validation(t *testing.T) {
	pub := &recordingPublisher{}

	_, err := NewMockCamera(0, 10, 30, imaging.TopLeft, pub)
	assert.ErrorIs(t, err, imaging.ErrContractViolation)

	_, err = NewMockCamera(10, 10, 0, imaging.TopLeft, pub)
	assert.ErrorIs(t, err, imaging.ErrContractViolation)

	_, err = NewMockCamera(10, 10, 30, imaging.TopLeft, nil)
	assert.Error(t, err)
}

func TestMockCamera_RenderIsDetectable(t *testing.T) {
	cam, err := NewMockCamera(160, 120, 30, imaging.TopLeft, &recordingPublisher{})
	require.NoError(t, err)

	frame := cam.Render(5)
	require.NoError(t, frame.Validate())

	m, err := imaging.FrameToMatrix(frame)
	require.NoError(t, err)
	q, err := detection.NewDetector().Detect(m)
	require.NoError(t, err)
	require.NotNil(t, q, "the synthetic square should be detected")

	side := 0.5 * 120.0
	assert.InDelta(t, side*side, q.HullArea(), 0.15*side*side)
}

func TestMockCamera_BottomLeftLayout(t *testing.T) {
	pub := &recordingPublisher{}
	top, _ := NewMockCamera(40, 30, 30, imaging.TopLeft, pub)
	bottom, _ := NewMockCamera(40, 30, 30, imaging.BottomLeft, pub)

	mt, err := imaging.FrameToMatrix(top.Render(7))
	require.NoError(t, err)
	mb, err := imaging.FrameToMatrix(bottom.Render(7))
	require.NoError(t, err)
	assert.Equal(t, mt.Pix, mb.Pix, "both layouts should describe the same picture")
}

func TestMockCamera_StartStop(t *testing.T) {
	pub := &recordingPublisher{}
	cam, err := NewMockCamera(16, 16, 200, imaging.TopLeft, pub)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, cam.Start(ctx))
	assert.ErrorIs(t, cam.Start(ctx), ErrAlreadyRunning)

	require.Eventually(t, func() bool { return len(pub.snapshot()) >= 3 }, 2*time.Second, time.Millisecond)
	assert.True(t, cam.Stats().IsConnected)

	require.NoError(t, cam.Stop())
	require.NoError(t, cam.Stop(), "second Stop is a no-op")

	frames := pub.snapshot()
	seen := map[string]bool{}
	for i, f := range frames {
		assert.Equal(t, uint64(i), f.Seq)
		_, err := uuid.Parse(f.TraceID)
		assert.NoError(t, err, "trace ID %q", f.TraceID)
		assert.False(t, seen[f.TraceID], "duplicate trace ID")
		seen[f.TraceID] = true
		assert.False(t, f.Timestamp.IsZero())
	}

	stats := cam.Stats()
	assert.Equal(t, "mock", stats.Kind)
	assert.Equal(t, uint64(len(frames)), stats.FrameCount)
	assert.Equal(t, "16x16", stats.Resolution)
	assert.False(t, stats.IsConnected)
}

func TestMockCamera_FeedsMailbox(t *testing.T) {
	mb := pipeline.NewMailbox()
	cam, err := NewMockCamera(32, 24, 100, imaging.TopLeft, mb)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, cam.Start(ctx))
	require.Eventually(t, func() bool { return mb.Published() > 0 }, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, cam.Stop())

	f, err := mb.Latest()
	require.NoError(t, err)
	assert.Equal(t, 32, f.Width)
}

// createTestPNG writes a small two-colour PNG and returns its path.
func createTestPNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 6, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			c := color.RGBA{255, 0, 0, 255}
			if y >= 2 {
				c = color.RGBA{0, 0, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "still.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestStillCamera(t *testing.T) {
	path := createTestPNG(t)
	pub := &recordingPublisher{}
	cache := imaging.NewImageCache()

	cam, err := OpenStillCamera(path, 200, imaging.TopLeft, cache, pub)
	require.NoError(t, err)
	assert.Equal(t, path, cam.Path())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, cam.Start(ctx))
	require.Eventually(t, func() bool { return len(pub.snapshot()) >= 2 }, 2*time.Second, time.Millisecond)
	require.NoError(t, cam.Stop())

	frames := pub.snapshot()
	assert.NotSame(t, frames[0], frames[1], "each publish gets its own frame header")
	assert.NotEqual(t, frames[0].TraceID, frames[1].TraceID)
	for _, f := range frames {
		assert.Equal(t, 6, f.Width)
		assert.Equal(t, 4, f.Height)
		assert.Equal(t, []byte{255, 0, 0, 255}, f.Pix[:4])
	}
	assert.Equal(t, "6x4", cam.Stats().Resolution)
}

func TestOpenStillCamera_Missing(t *testing.T) {
	_, err := OpenStillCamera(filepath.Join(t.TempDir(), "nope.png"), 30, imaging.TopLeft, nil, &recordingPublisher{})
	assert.Error(t, err)
}
