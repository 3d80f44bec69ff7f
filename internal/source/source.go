// Package source provides camera collaborators that feed the frame loop.
//
// A camera runs its own goroutine and publishes frames at a target rate into
// a Publisher, normally a pipeline.Mailbox. Opening a camera may fail; the
// error is returned to the caller, which decides whether to retry.
package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/quadcam/internal/imaging"
	"github.com/ironsheep/quadcam/internal/pipeline"
)

// ErrAlreadyRunning is returned by Start on a running camera.
var ErrAlreadyRunning = errors.New("camera already running")

// Publisher receives frames from a camera. Publish must not block.
type Publisher interface {
	Publish(frame *imaging.RawFrame)
}

// Stats describes a camera's activity.
type Stats struct {
	Kind        string  `json:"kind"`
	FrameCount  uint64  `json:"frame_count"`
	FPSTarget   int     `json:"fps_target"`
	FPSReal     float64 `json:"fps_real"`
	Resolution  string  `json:"resolution"`
	Origin      string  `json:"origin"`
	IsConnected bool    `json:"is_connected"`
}

// producer renders the frame for a sequence number. Only the publishing
// goroutine calls it.
type producer func(seq uint64) *imaging.RawFrame

// stream is the publishing loop shared by every camera kind.
type stream struct {
	kind   string
	width  int
	height int
	fps    int
	origin imaging.Origin
	out    Publisher
	render producer

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu            sync.RWMutex
	seq           uint64
	framesEmitted uint64
	isRunning     bool
	startTime     time.Time
}

func newStream(kind string, width, height, fps int, origin imaging.Origin, out Publisher) (*stream, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: camera resolution %dx%d", imaging.ErrContractViolation, width, height)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("%w: camera fps %d", imaging.ErrContractViolation, fps)
	}
	if out == nil {
		return nil, errors.New("camera publisher is required")
	}
	return &stream{
		kind:   kind,
		width:  width,
		height: height,
		fps:    fps,
		origin: origin,
		out:    out,
	}, nil
}

// Start begins publishing frames until ctx is cancelled or Stop is called.
// The first frame is published immediately.
func (s *stream) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.isRunning = true
	s.startTime = time.Now()
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	pipeline.Logger().Info("camera starting",
		"kind", s.kind,
		"width", s.width,
		"height", s.height,
		"fps", s.fps,
		"origin", s.origin.String(),
	)

	s.wg.Add(1)
	go s.generate(ctx)
	return nil
}

// Stop halts publishing and waits for the camera goroutine to exit.
func (s *stream) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	s.isRunning = false
	emitted := s.framesEmitted
	started := s.startTime
	s.mu.Unlock()

	pipeline.Logger().Info("camera stopped",
		"kind", s.kind,
		"frames_emitted", emitted,
		"duration", time.Since(started),
	)
	return nil
}

// Stats returns the camera counters.
func (s *stream) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var fpsReal float64
	if s.isRunning && s.framesEmitted > 0 {
		if elapsed := time.Since(s.startTime).Seconds(); elapsed > 0 {
			fpsReal = float64(s.framesEmitted) / elapsed
		}
	}

	return Stats{
		Kind:        s.kind,
		FrameCount:  s.framesEmitted,
		FPSTarget:   s.fps,
		FPSReal:     fpsReal,
		Resolution:  fmt.Sprintf("%dx%d", s.width, s.height),
		Origin:      s.origin.String(),
		IsConnected: s.isRunning,
	}
}

func (s *stream) generate(ctx context.Context) {
	defer s.wg.Done()

	frameDuration := time.Second / time.Duration(s.fps)
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	pipeline.Logger().Debug("frame generator started", "kind", s.kind, "frame_duration", frameDuration)

	s.emit()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.emit()
		}
	}
}

func (s *stream) emit() {
	s.mu.Lock()
	seq := s.seq
	s.seq++
	s.mu.Unlock()

	frame := s.render(seq)
	frame.Seq = seq
	frame.Timestamp = time.Now()
	frame.TraceID = uuid.New().String()
	s.out.Publish(frame)

	s.mu.Lock()
	s.framesEmitted++
	s.mu.Unlock()
}
