package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kisandost/kisandost-go/pkg/audio"
)

var (
	// ErrInvalidTransition is returned when a transport command does not
	// apply to the current state.
	ErrInvalidTransition = errors.New("invalid transport transition")

	// ErrStaleLoad is returned when a decoded buffer arrives for a load that
	// was superseded or torn down. The buffer is discarded.
	ErrStaleLoad = errors.New("load superseded")
)

// Option configures a Transport.
type Option func(*Transport)

// WithStateListener registers fn to observe every state change, in order.
// fn is never called with the transport lock held.
func WithStateListener(fn func(State)) Option {
	return func(t *Transport) {
		t.onState = fn
	}
}

// Transport is the play/pause/resume state machine for one narration.
//
// Positions are derived from the output clock: startClock is the clock
// reading at which offset zero of the buffer would have played, so the
// current position is always Now() - startClock.
//
// Completion callbacks are tagged with the handle generation they were
// created under. Stopping a handle bumps the generation, so a late
// callback from a paused, restarted or torn-down handle never ends the
// narration.
type Transport struct {
	logger    *zap.Logger
	newOutput OutputFactory
	onState   func(State)

	mu         sync.Mutex
	state      State
	output     Output
	buffer     *audio.SampleBuffer
	handle     Handle
	handleGen  uint64
	loadTicket uint64
	startClock time.Duration
	pausedAt   time.Duration
	pending    []State
}

// NewTransport creates an idle transport that opens outputs via newOutput.
func NewTransport(logger *zap.Logger, newOutput OutputFactory, opts ...Option) *Transport {
	t := &Transport{
		logger:    logger.Named("transport"),
		newOutput: newOutput,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns the current transport state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

// HasBuffer reports whether decoded audio is resident.
func (t *Transport) HasBuffer() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.buffer != nil
}

// Duration returns the length of the resident buffer, or zero.
func (t *Transport) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.buffer.Duration()
}

// Position returns the playback offset into the resident buffer.
func (t *Transport) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StatePlaying:
		if t.output == nil {
			return t.buffer.Duration()
		}
		return t.clampLocked(t.output.Now() - t.startClock)
	case StatePaused:
		return t.pausedAt
	case StateEnded:
		return t.buffer.Duration()
	default:
		return 0
	}
}

// BeginLoading tears down any previous narration and enters loading. The
// returned ticket must be passed to Load or FailLoading; a later
// BeginLoading or Teardown invalidates it.
func (t *Transport) BeginLoading() uint64 {
	t.mu.Lock()
	if t.state != StateIdle {
		t.logger.Debug("Superseding current narration", zap.Stringer("state", t.state))
	}
	t.releaseLocked()
	t.loadTicket++
	ticket := t.loadTicket
	t.setStateLocked(StateLoading)
	t.unlockAndNotify()

	return ticket
}

// Load binds buf to the transport and starts playback at offset zero.
// An empty buffer moves straight through playing to ended without opening
// an output.
func (t *Transport) Load(ticket uint64, buf *audio.SampleBuffer) error {
	t.mu.Lock()

	if ticket != t.loadTicket || t.state != StateLoading {
		t.mu.Unlock()
		t.logger.Debug("Discarding stale load", zap.Uint64("ticket", ticket))

		return ErrStaleLoad
	}

	if buf == nil {
		buf = &audio.SampleBuffer{}
	}
	t.buffer = buf

	if buf.Empty() {
		t.setStateLocked(StatePlaying)
		t.setStateLocked(StateEnded)
		t.unlockAndNotify()

		return nil
	}

	if t.output == nil {
		out, err := t.newOutput(buf.SampleRate, buf.NumChannels())
		if err != nil {
			t.failLocked()
			t.unlockAndNotify()

			return fmt.Errorf("open output: %w", err)
		}
		t.output = out
	}

	if err := t.startLocked(0); err != nil {
		t.failLocked()
		t.unlockAndNotify()

		return err
	}

	t.logger.Debug("Narration loaded",
		zap.Duration("duration", buf.Duration()),
		zap.Int("channels", buf.NumChannels()),
		zap.Int("sample_rate", buf.SampleRate))
	t.unlockAndNotify()

	return nil
}

// FailLoading abandons the load identified by ticket and returns to idle.
// It reports false, and changes nothing, when the ticket is stale.
func (t *Transport) FailLoading(ticket uint64) bool {
	t.mu.Lock()
	if ticket != t.loadTicket || t.state != StateLoading {
		t.mu.Unlock()

		return false
	}
	t.failLocked()
	t.unlockAndNotify()

	return true
}

// Pause stops the active handle and remembers the offset it reached.
func (t *Transport) Pause() error {
	t.mu.Lock()

	if t.state != StatePlaying {
		state := t.state
		t.mu.Unlock()

		return fmt.Errorf("%w: pause from %s", ErrInvalidTransition, state)
	}

	var offset time.Duration
	if t.output != nil {
		offset = t.clampLocked(t.output.Now() - t.startClock)
	}
	t.stopHandleLocked()
	t.pausedAt = offset
	t.setStateLocked(StatePaused)
	t.unlockAndNotify()

	return nil
}

// Resume starts a new handle at the offset captured by Pause.
func (t *Transport) Resume() error {
	t.mu.Lock()

	if t.state != StatePaused {
		state := t.state
		t.mu.Unlock()

		return fmt.Errorf("%w: resume from %s", ErrInvalidTransition, state)
	}

	if err := t.startLocked(t.pausedAt); err != nil {
		t.failLocked()
		t.unlockAndNotify()

		return err
	}
	t.unlockAndNotify()

	return nil
}

// Restart plays the resident buffer again from offset zero.
func (t *Transport) Restart() error {
	t.mu.Lock()

	switch t.state {
	case StatePlaying, StatePaused, StateEnded:
	default:
		state := t.state
		t.mu.Unlock()

		return fmt.Errorf("%w: restart from %s", ErrInvalidTransition, state)
	}

	t.stopHandleLocked()

	if t.buffer.Empty() {
		t.setStateLocked(StatePlaying)
		t.setStateLocked(StateEnded)
		t.unlockAndNotify()

		return nil
	}

	if err := t.startLocked(0); err != nil {
		t.failLocked()
		t.unlockAndNotify()

		return err
	}
	t.unlockAndNotify()

	return nil
}

// Teardown stops playback, closes the output and clears the buffer. It is
// safe from any state and idempotent.
func (t *Transport) Teardown() {
	t.mu.Lock()
	t.releaseLocked()
	t.loadTicket++
	t.setStateLocked(StateIdle)
	t.unlockAndNotify()
}

func (t *Transport) startLocked(offset time.Duration) error {
	t.handleGen++
	gen := t.handleGen

	now := t.output.Now()
	h, err := t.output.Start(t.buffer, offset, func() { t.handleEnded(gen) })
	if err != nil {
		return fmt.Errorf("start output: %w", err)
	}

	t.handle = h
	t.startClock = now - offset
	t.pausedAt = 0
	t.setStateLocked(StatePlaying)

	return nil
}

func (t *Transport) handleEnded(gen uint64) {
	t.mu.Lock()

	if gen != t.handleGen || t.state != StatePlaying || t.handle == nil {
		t.mu.Unlock()
		t.logger.Debug("Discarding stale completion", zap.Uint64("generation", gen))

		return
	}

	t.handle = nil
	t.setStateLocked(StateEnded)
	t.unlockAndNotify()
}

func (t *Transport) stopHandleLocked() {
	if t.handle == nil {
		return
	}
	t.handleGen++
	t.handle.Stop()
	t.handle = nil
}

// releaseLocked frees everything owned by the current narration.
func (t *Transport) releaseLocked() {
	t.stopHandleLocked()

	if t.output != nil {
		if err := t.output.Close(); err != nil {
			t.logger.Warn("Failed to close audio output", zap.Error(err))
		}
		t.output = nil
	}

	t.buffer = nil
	t.startClock = 0
	t.pausedAt = 0
}

func (t *Transport) failLocked() {
	t.releaseLocked()
	t.setStateLocked(StateIdle)
}

func (t *Transport) clampLocked(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if total := t.buffer.Duration(); d > total {
		return total
	}
	return d
}

func (t *Transport) setStateLocked(s State) {
	if t.state == s {
		return
	}
	t.state = s
	t.pending = append(t.pending, s)
}

// unlockAndNotify releases the lock and then reports queued state changes.
func (t *Transport) unlockAndNotify() {
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	if t.onState == nil {
		return
	}
	for _, s := range pending {
		t.onState(s)
	}
}
