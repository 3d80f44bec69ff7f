package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/quadcam/internal/detection"
	"github.com/ironsheep/quadcam/internal/imaging"
	"github.com/ironsheep/quadcam/internal/overlay"
)

// DefaultInterval is the display refresh period, roughly 30 Hz.
const DefaultInterval = time.Second / 30

// latencyWindow is the number of recent tick durations kept for Stats.
const latencyWindow = 64

// Source yields the newest camera frame. It may return the same frame on
// consecutive calls, and ErrNoFrame before any frame exists.
type Source interface {
	Latest() (*imaging.RawFrame, error)
}

// QuadDetector finds at most one quadrilateral in a matrix.
type QuadDetector interface {
	Detect(m *imaging.Matrix) (*detection.Quad, error)
}

// PreviewSink receives every published frame. It runs on the loop goroutine
// and must not modify the frame.
type PreviewSink interface {
	Preview(frame *imaging.RawFrame) error
}

// Config configures a Loop.
type Config struct {
	// Source supplies camera frames. Required.
	Source Source

	// Detector defaults to detection.NewDetector().
	Detector QuadDetector

	// Renderer defaults to overlay.NewRenderer().
	Renderer *overlay.Renderer

	// Orientation is the fixed mounting rotation applied to every frame.
	Orientation imaging.Orientation

	// Preview is optional.
	Preview PreviewSink

	// Interval is the Run tick period. Zero means DefaultInterval.
	Interval time.Duration
}

// Result is what the loop publishes for one processed frame.
type Result struct {
	// Frame is the annotated display buffer. Never modified after publish.
	Frame *imaging.RawFrame

	// Quad is the detection for Frame, in rotated matrix coordinates, or
	// nil when none was found.
	Quad *detection.Quad

	// At is when the frame was published.
	At time.Time
}

// Stats summarises loop activity.
type Stats struct {
	Ticks          uint64        `json:"ticks"`
	Published      uint64        `json:"published"`
	Skipped        uint64        `json:"skipped"`
	Failures       uint64        `json:"failures"`
	Detections     uint64        `json:"detections"`
	DetectorErrors uint64        `json:"detector_errors"`
	LastError      string        `json:"last_error,omitempty"`
	LastTick       time.Duration `json:"last_tick_ns"`

	// TickMeanMs and TickStdDevMs summarise the most recent tick durations.
	TickMeanMs   float64 `json:"tick_mean_ms"`
	TickStdDevMs float64 `json:"tick_stddev_ms"`
}

// Loop runs the per-frame pipeline: pull the newest frame, convert it to a
// matrix, correct orientation, detect, draw the overlay, convert back and
// publish. Every stage runs synchronously inside Tick.
type Loop struct {
	source      Source
	corrector   *imaging.Corrector
	detector    QuadDetector
	renderer    *overlay.Renderer
	preview     PreviewSink
	interval    time.Duration
	orientation imaging.Orientation
	now         func() time.Time

	current atomic.Pointer[Result]

	ticks          atomic.Uint64
	published      atomic.Uint64
	skipped        atomic.Uint64
	failures       atomic.Uint64
	detections     atomic.Uint64
	detectorErrors atomic.Uint64

	mu        sync.Mutex
	lastError error
	lastTick  time.Duration
	latency   [latencyWindow]float64
	samples   int
}

// NewLoop validates cfg and returns a loop that has not published anything
// yet.
func NewLoop(cfg Config) (*Loop, error) {
	if cfg.Source == nil {
		return nil, errors.New("pipeline: source is required")
	}
	corrector, err := imaging.NewCorrector(cfg.Orientation)
	if err != nil {
		return nil, err
	}

	l := &Loop{
		source:      cfg.Source,
		corrector:   corrector,
		detector:    cfg.Detector,
		renderer:    cfg.Renderer,
		preview:     cfg.Preview,
		interval:    cfg.Interval,
		orientation: cfg.Orientation,
		now:         time.Now,
	}
	if l.detector == nil {
		l.detector = detection.NewDetector()
	}
	if l.renderer == nil {
		l.renderer = overlay.NewRenderer()
	}
	if l.interval <= 0 {
		l.interval = DefaultInterval
	}
	return l, nil
}

// Orientation returns the rotation applied to every frame.
func (l *Loop) Orientation() imaging.Orientation {
	return l.orientation
}

// Interval returns the Run tick period.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Run calls Tick every interval until ctx is cancelled. Tick failures are
// logged and do not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	Logger().Info("frame loop started", "interval", l.interval, "orientation", int(l.orientation))
	for {
		select {
		case <-ctx.Done():
			Logger().Info("frame loop stopped", "published", l.published.Load())
			return ctx.Err()
		case <-ticker.C:
			_ = l.Tick()
		}
	}
}

// Tick processes the newest frame once.
//
// A missing frame (ErrNoFrame) is a skipped tick and returns nil. A detector
// error is logged and the frame is published without an overlay. Any other
// failure (source error, malformed buffer, panic in a stage) is logged,
// counted and returned; the previously published frame stays current.
func (l *Loop) Tick() (err error) {
	start := time.Now()
	l.ticks.Add(1)

	var frame *imaging.RawFrame
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("frame loop panic: %v", r)
		}
		if err != nil {
			l.fail(frame, err)
		}
		l.recordTick(time.Since(start))
	}()

	frame, err = l.source.Latest()
	if errors.Is(err, ErrNoFrame) {
		l.skipped.Add(1)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read frame: %w", err)
	}

	m, err := imaging.FrameToMatrix(frame)
	if err != nil {
		return fmt.Errorf("failed to convert frame: %w", err)
	}
	m = l.corrector.Apply(m)

	quad, derr := l.detector.Detect(m)
	if derr != nil {
		l.detectorErrors.Add(1)
		Logger().Warn("detection failed", "seq", frame.Seq, "trace_id", frame.TraceID, "error", derr)
		quad = nil
	}
	if quad != nil {
		l.detections.Add(1)
		Logger().Debug("quad detected", "seq", frame.Seq, "trace_id", frame.TraceID, "points", quad.Points)
	}

	out, err := imaging.ToBuffer(l.renderer.Draw(m, quad), frame.Origin)
	if err != nil {
		return fmt.Errorf("failed to convert matrix: %w", err)
	}
	out.Seq = frame.Seq
	out.Timestamp = frame.Timestamp
	out.TraceID = frame.TraceID

	l.current.Store(&Result{Frame: out, Quad: quad, At: l.now()})
	l.published.Add(1)

	if l.preview != nil {
		if perr := l.preview.Preview(out); perr != nil {
			Logger().Warn("preview failed", "seq", frame.Seq, "error", perr)
		}
	}
	return nil
}

func (l *Loop) recordTick(d time.Duration) {
	l.mu.Lock()
	l.lastTick = d
	l.latency[l.samples%latencyWindow] = float64(d) / float64(time.Millisecond)
	l.samples++
	l.mu.Unlock()
}

func (l *Loop) fail(frame *imaging.RawFrame, err error) {
	l.failures.Add(1)
	l.mu.Lock()
	l.lastError = err
	l.mu.Unlock()

	attrs := []any{"error", err}
	if frame != nil {
		attrs = append(attrs, "seq", frame.Seq, "trace_id", frame.TraceID)
	}
	Logger().Error("tick failed", attrs...)
}

// Latest returns the most recent result, or nil before the first publish.
func (l *Loop) Latest() *Result {
	return l.current.Load()
}

// Current returns the most recently published frame, or nil. The frame is
// shared and must not be modified.
func (l *Loop) Current() *imaging.RawFrame {
	if r := l.current.Load(); r != nil {
		return r.Frame
	}
	return nil
}

// Snapshot returns a private copy of the current frame, or nil.
func (l *Loop) Snapshot() *imaging.RawFrame {
	if f := l.Current(); f != nil {
		return f.Clone()
	}
	return nil
}

// Capture saves the current frame into dir. It returns the file path and the
// frame that was written, or ErrNoFrame when nothing has been published yet.
func (l *Loop) Capture(dir string) (string, *imaging.RawFrame, error) {
	frame := l.Current()
	if frame == nil {
		return "", nil, ErrNoFrame
	}
	path, err := imaging.SaveFrame(frame, dir, l.now())
	if err != nil {
		return "", nil, err
	}
	Logger().Info("frame captured", "path", path, "seq", frame.Seq, "trace_id", frame.TraceID)
	return path, frame, nil
}

// LastError returns the error of the most recent failed tick.
func (l *Loop) LastError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastError
}

// Stats returns a snapshot of the loop counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	lastErr, lastTick := l.lastError, l.lastTick
	window := l.latency[:min(l.samples, latencyWindow)]
	mean, std := tickSummary(window)
	l.mu.Unlock()

	s := Stats{
		Ticks:          l.ticks.Load(),
		Published:      l.published.Load(),
		Skipped:        l.skipped.Load(),
		Failures:       l.failures.Load(),
		Detections:     l.detections.Load(),
		DetectorErrors: l.detectorErrors.Load(),
		LastTick:       lastTick,
		TickMeanMs:     mean,
		TickStdDevMs:   std,
	}
	if lastErr != nil {
		s.LastError = lastErr.Error()
	}
	return s
}

// tickSummary returns the mean and sample standard deviation of durations
// in milliseconds. Both are zero when there is too little data.
func tickSummary(ms []float64) (mean, std float64) {
	switch len(ms) {
	case 0:
		return 0, 0
	case 1:
		return ms[0], 0
	}
	return stat.MeanStdDev(ms, nil)
}
