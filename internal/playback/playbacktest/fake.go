// Package playbacktest provides a scriptable Output for exercising
// transports without audio hardware.
package playbacktest

import (
	"errors"
	"sync"
	"time"

	"github.com/kisandost/kisandost-go/internal/playback"
	"github.com/kisandost/kisandost-go/pkg/audio"
)

// Output is a fake playback.Output with a manually advanced clock.
// Completion callbacks are only delivered when a test calls Complete.
type Output struct {
	SampleRate int
	Channels   int

	mu       sync.Mutex
	now      time.Duration
	handles  []*Handle
	closed   bool
	StartErr error
}

// Handle records one Start call.
type Handle struct {
	out       *Output
	Buffer    *audio.SampleBuffer
	Offset    time.Duration
	StartedAt time.Duration
	onEnded   func()
	stopped   bool
	completed bool
}

// Now returns the fake clock.
func (o *Output) Now() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.now
}

// Advance moves the fake clock forward.
func (o *Output) Advance(d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.now += d
}

// Start records a new handle.
func (o *Output) Start(buf *audio.SampleBuffer, offset time.Duration, onEnded func()) (playback.Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, playback.ErrOutputClosed
	}
	if o.StartErr != nil {
		return nil, o.StartErr
	}

	h := &Handle{
		out:       o,
		Buffer:    buf,
		Offset:    offset,
		StartedAt: o.now,
		onEnded:   onEnded,
	}
	o.handles = append(o.handles, h)

	return h, nil
}

// Close marks the output closed.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.closed = true
	for _, h := range o.handles {
		h.stopped = true
	}

	return nil
}

// Closed reports whether Close was called.
func (o *Output) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.closed
}

// Handles returns every handle started so far, oldest first.
func (o *Output) Handles() []*Handle {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]*Handle(nil), o.handles...)
}

// Last returns the most recent handle, or nil.
func (o *Output) Last() *Handle {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.handles) == 0 {
		return nil
	}
	return o.handles[len(o.handles)-1]
}

// Audible returns the handles that were neither stopped nor completed.
func (o *Output) Audible() []*Handle {
	o.mu.Lock()
	defer o.mu.Unlock()

	var live []*Handle
	for _, h := range o.handles {
		if !h.stopped && !h.completed {
			live = append(live, h)
		}
	}
	return live
}

// Stop marks the handle stopped. The completion callback is held until
// Complete is called, as real outputs deliver it later.
func (h *Handle) Stop() {
	h.out.mu.Lock()
	defer h.out.mu.Unlock()

	h.stopped = true
}

// Stopped reports whether Stop was called.
func (h *Handle) Stopped() bool {
	h.out.mu.Lock()
	defer h.out.mu.Unlock()

	return h.stopped
}

// Complete delivers the handle's completion callback on the calling
// goroutine, as if the output had finished or processed a stop.
func (h *Handle) Complete() {
	h.out.mu.Lock()
	if h.completed {
		h.out.mu.Unlock()

		return
	}
	h.completed = true
	cb := h.onEnded
	h.out.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// Factory hands out fake outputs and remembers them.
type Factory struct {
	mu      sync.Mutex
	outputs []*Output
	Err     error
}

// ErrNoDevice is a convenience error for failing factories.
var ErrNoDevice = errors.New("no audio device")

// New implements playback.OutputFactory.
func (f *Factory) New(sampleRate, channels int) (playback.Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}

	o := &Output{SampleRate: sampleRate, Channels: channels}
	f.outputs = append(f.outputs, o)

	return o, nil
}

// Outputs returns every output opened so far.
func (f *Factory) Outputs() []*Output {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*Output(nil), f.outputs...)
}

// Last returns the most recently opened output, or nil.
func (f *Factory) Last() *Output {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.outputs) == 0 {
		return nil
	}
	return f.outputs[len(f.outputs)-1]
}

// Buffer returns a mono buffer of the given length at the narration rate.
func Buffer(d time.Duration) *audio.SampleBuffer {
	frames := audio.DurationToFrames(d, audio.NarrationSampleRate)
	return &audio.SampleBuffer{
		SampleRate: audio.NarrationSampleRate,
		Channels:   [][]float32{make([]float32, frames)},
	}
}
