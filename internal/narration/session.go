// Package narration binds synthesized speech to a playback transport for
// the lifetime of a screen.
package narration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kisandost/kisandost-go/internal/playback"
	"github.com/kisandost/kisandost-go/pkg/audio"
)

// Synthesizer turns text into a base64 PCM16 payload.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithFormat sets the PCM format of synthesized payloads. Non-positive
// values keep the narration defaults.
func WithFormat(sampleRate, channels int) SessionOption {
	return func(s *Session) {
		if sampleRate > 0 {
			s.sampleRate = sampleRate
		}
		if channels > 0 {
			s.channels = channels
		}
	}
}

// WithSynthesisTimeout bounds each synthesis call.
func WithSynthesisTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		s.timeout = d
	}
}

// WithStateListener observes transport state changes.
func WithStateListener(fn func(playback.State)) SessionOption {
	return func(s *Session) {
		s.listener = fn
	}
}

// claimFunc runs begin while the caller holds exclusive use of the audio
// output, so no other session can start loading in between.
type claimFunc func(owner *Session, begin func())

func withScreen(screenID string, claim claimFunc) SessionOption {
	return func(s *Session) {
		s.screenID = screenID
		s.claim = claim
	}
}

// Session is one narration slot. At most one narration is in flight per
// session; starting a new one supersedes the previous.
type Session struct {
	id         string
	screenID   string
	logger     *zap.Logger
	synth      Synthesizer
	transport  *playback.Transport
	sampleRate int
	channels   int
	timeout    time.Duration
	listener   func(playback.State)
	claim      claimFunc

	mu   sync.Mutex
	text string
}

// NewSession creates an idle session.
func NewSession(logger *zap.Logger, synth Synthesizer, newOutput playback.OutputFactory, opts ...SessionOption) *Session {
	s := &Session{
		id:         uuid.New().String(),
		synth:      synth,
		sampleRate: audio.NarrationSampleRate,
		channels:   audio.NarrationChannels,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger = logger.Named("narration").With(
		zap.String("session_id", s.id),
		zap.String("screen_id", s.screenID))

	var tOpts []playback.Option
	if s.listener != nil {
		tOpts = append(tOpts, playback.WithStateListener(s.listener))
	}
	s.transport = playback.NewTransport(s.logger, newOutput, tOpts...)

	return s
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// ScreenID returns the screen the session is bound to, if any.
func (s *Session) ScreenID() string { return s.screenID }

// State returns the transport state.
func (s *Session) State() playback.State { return s.transport.State() }

// Position returns the playback offset.
func (s *Session) Position() time.Duration { return s.transport.Position() }

// Duration returns the length of the resident narration.
func (s *Session) Duration() time.Duration { return s.transport.Duration() }

// Text returns the text of the most recent narration request.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.text
}

// Play synthesizes text and starts playing it from the beginning. Any
// narration already loading or playing is torn down first. Play blocks
// for the synthesis call.
//
// On failure the session is idle again and the error is a *SynthesisError
// or *DecodeError. If the session was disposed or another Play started
// while this one was synthesizing, the result is dropped and ErrSuperseded
// is returned.
func (s *Session) Play(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrNoText
	}

	s.mu.Lock()
	s.text = text
	s.mu.Unlock()

	var ticket uint64
	begin := func() { ticket = s.transport.BeginLoading() }
	if s.claim != nil {
		s.claim(s, begin)
	} else {
		begin()
	}
	s.logger.Info("Requesting narration", zap.Int("chars", len(text)))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	payload, err := s.synth.Synthesize(ctx, text)
	if err == nil && payload == "" {
		err = ErrEmptyPayload
	}
	if err != nil {
		return s.fail(ticket, &SynthesisError{Err: err})
	}

	data, err := audio.DecodeBase64(payload)
	if err != nil {
		return s.fail(ticket, &DecodeError{Err: err})
	}

	buf, err := audio.DecodePCM16(data, s.sampleRate, s.channels)
	if err != nil {
		return s.fail(ticket, &DecodeError{Err: err})
	}

	if err := s.transport.Load(ticket, buf); err != nil {
		if errors.Is(err, playback.ErrStaleLoad) {
			s.logger.Debug("Dropping superseded narration")

			return ErrSuperseded
		}
		s.logger.Error("Failed to start narration", zap.Error(err))

		return fmt.Errorf("start narration: %w", err)
	}

	s.logger.Info("Narration started", zap.Duration("duration", buf.Duration()))

	return nil
}

func (s *Session) fail(ticket uint64, err error) error {
	if !s.transport.FailLoading(ticket) {
		s.logger.Debug("Dropping failure of superseded narration", zap.Error(err))

		return ErrSuperseded
	}
	s.logger.Warn("Narration failed", zap.Error(err))

	return err
}

// Toggle is the listen/pause/resume button: it starts the last text when
// idle or ended, pauses when playing and resumes when paused. It returns
// ErrBusy while loading.
func (s *Session) Toggle(ctx context.Context) error {
	switch state := s.transport.State(); state {
	case playback.StateIdle, playback.StateEnded:
		return s.Play(ctx, s.Text())
	case playback.StatePlaying:
		return s.transport.Pause()
	case playback.StatePaused:
		return s.transport.Resume()
	case playback.StateLoading:
		return ErrBusy
	default:
		return fmt.Errorf("%w: toggle from %s", playback.ErrInvalidTransition, state)
	}
}

// Restart plays the resident narration from the beginning without
// synthesizing it again. With nothing resident it behaves like Play with
// the last text.
func (s *Session) Restart(ctx context.Context) error {
	if s.transport.HasBuffer() {
		err := s.transport.Restart()
		if !errors.Is(err, playback.ErrInvalidTransition) {
			return err
		}
	}
	if s.transport.State() == playback.StateLoading {
		return ErrBusy
	}

	return s.Play(ctx, s.Text())
}

// Dispose stops playback and releases the output and buffer. Safe to call
// from any state, more than once, and while a Play is synthesizing.
func (s *Session) Dispose() {
	if s.transport.State() != playback.StateIdle {
		s.logger.Debug("Disposing narration", zap.Stringer("state", s.transport.State()))
	}
	s.transport.Teardown()
}
