package narration

import (
	"maps"
	"sync"

	"go.uber.org/zap"

	"github.com/kisandost/kisandost-go/internal/config"
	"github.com/kisandost/kisandost-go/internal/playback"
)

// SessionManager owns the narration session of every open screen and
// makes sure only one of them holds the audio output at a time.
type SessionManager interface {
	// Acquire creates the session for a screen. Release the lease when the
	// screen is replaced or navigated away from.
	Acquire(screenID string, opts ...SessionOption) (*Lease, error)

	// GetSession returns the session bound to a screen.
	GetSession(screenID string) (*Session, error)

	// EndSession disposes a screen's session and forgets it.
	EndSession(screenID string) error

	// ActiveSessions returns a snapshot of all sessions by screen.
	ActiveSessions() map[string]*Session

	// EndAll disposes every session.
	EndAll()
}

// Lease scopes a session to a screen. Release is idempotent.
type Lease struct {
	Session *Session

	once    sync.Once
	release func()
}

// Release disposes the session and unregisters it.
func (l *Lease) Release() {
	l.once.Do(l.release)
}

type sessionManager struct {
	logger    *zap.Logger
	cfg       *config.NarrationConfig
	synth     Synthesizer
	newOutput playback.OutputFactory
	sessions  map[string]*Session
	mu        sync.RWMutex

	// outputMu serializes output claims with the claimant's BeginLoading.
	outputMu sync.Mutex
}

func NewSessionManager(logger *zap.Logger, cfg *config.NarrationConfig, synth Synthesizer, newOutput playback.OutputFactory) SessionManager {
	return &sessionManager{
		logger:    logger.Named("narration_sessions"),
		cfg:       cfg,
		synth:     synth,
		newOutput: newOutput,
		sessions:  make(map[string]*Session),
	}
}

func (sm *sessionManager) Acquire(screenID string, opts ...SessionOption) (*Lease, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[screenID]; exists {
		return nil, ErrSessionAlreadyExists
	}

	if sm.cfg.MaxSessions > 0 && len(sm.sessions) >= sm.cfg.MaxSessions {
		return nil, ErrMaxSessionsReached
	}

	base := []SessionOption{
		WithFormat(sm.cfg.SampleRate, sm.cfg.Channels),
		WithSynthesisTimeout(sm.cfg.SynthesisTimeout),
	}
	opts = append(append(base, opts...), withScreen(screenID, sm.claimOutput))

	session := NewSession(sm.logger, sm.synth, sm.newOutput, opts...)
	sm.sessions[screenID] = session

	sm.logger.Info("Narration session created",
		zap.String("screen_id", screenID),
		zap.String("session_id", session.ID()))

	return &Lease{
		Session: session,
		release: func() {
			if err := sm.EndSession(screenID); err != nil {
				sm.logger.Debug("Lease released after session ended",
					zap.String("screen_id", screenID))
			}
		},
	}, nil
}

func (sm *sessionManager) GetSession(screenID string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[screenID]
	if !exists {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

func (sm *sessionManager) EndSession(screenID string) error {
	sm.mu.Lock()
	session, exists := sm.sessions[screenID]
	if !exists {
		sm.mu.Unlock()

		return ErrSessionNotFound
	}
	delete(sm.sessions, screenID)
	sm.mu.Unlock()

	session.Dispose()

	sm.logger.Info("Narration session ended",
		zap.String("screen_id", screenID),
		zap.String("session_id", session.ID()))

	return nil
}

func (sm *sessionManager) ActiveSessions() map[string]*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	// Return a copy to avoid concurrent access issues
	sessions := make(map[string]*Session, len(sm.sessions))
	maps.Copy(sessions, sm.sessions)

	return sessions
}

func (sm *sessionManager) EndAll() {
	for screenID := range sm.ActiveSessions() {
		_ = sm.EndSession(screenID)
	}
}

// claimOutput tears down every other session and then lets owner enter
// loading, as one step. A session only leaves idle through begin, so two
// screens starting at once cannot both miss each other.
func (sm *sessionManager) claimOutput(owner *Session, begin func()) {
	sm.outputMu.Lock()
	defer sm.outputMu.Unlock()

	for _, other := range sm.ActiveSessions() {
		if other == owner || other.State() == playback.StateIdle {
			continue
		}
		sm.logger.Debug("Releasing audio output held by another screen",
			zap.String("screen_id", other.ScreenID()),
			zap.String("claimed_by", owner.ScreenID()))
		other.Dispose()
	}

	begin()
}
