package pipeline

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ironsheep/quadcam/internal/imaging"
)

// ErrNoFrame is returned by a Source before its first frame arrives.
var ErrNoFrame = errors.New("no frame available")

// Mailbox is a single-slot frame buffer between a camera goroutine and the
// frame loop. The camera publishes asynchronously; the loop pulls the newest
// frame once per tick.
type Mailbox struct {
	mu       sync.Mutex
	frame    *imaging.RawFrame
	consumed bool

	published atomic.Uint64
	drops     atomic.Uint64
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Publish stores frame as the newest one, replacing any previous frame.
//
// Publish never blocks beyond a pointer swap. Replacing a frame that the loop
// never pulled counts as a drop. frame must not be modified afterwards.
func (b *Mailbox) Publish(frame *imaging.RawFrame) {
	b.mu.Lock()
	if b.frame != nil && !b.consumed {
		b.drops.Add(1)
	}
	b.frame = frame
	b.consumed = false
	b.mu.Unlock()

	b.published.Add(1)
}

// Latest returns the newest frame. The same frame is returned again until a
// newer one is published. Before the first Publish it returns ErrNoFrame.
func (b *Mailbox) Latest() (*imaging.RawFrame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame == nil {
		return nil, ErrNoFrame
	}
	b.consumed = true
	return b.frame, nil
}

// Published returns the number of frames published so far.
func (b *Mailbox) Published() uint64 {
	return b.published.Load()
}

// Drops returns the number of frames overwritten before being pulled.
func (b *Mailbox) Drops() uint64 {
	return b.drops.Load()
}
