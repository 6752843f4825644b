package narration

import "errors"

// Error definitions
var (
	ErrSessionAlreadyExists = NewNarrationError("session already exists for this screen")
	ErrSessionNotFound      = NewNarrationError("session not found")
	ErrMaxSessionsReached   = NewNarrationError("maximum concurrent sessions reached")
	ErrNoText               = NewNarrationError("nothing to narrate")
	ErrBusy                 = NewNarrationError("narration is loading")
	ErrSuperseded           = NewNarrationError("narration superseded")
	ErrEmptyPayload         = NewNarrationError("synthesizer returned no audio")
)

// NarrationError represents errors specific to narration sessions.
type NarrationError struct {
	message string
}

func NewNarrationError(message string) *NarrationError {
	return &NarrationError{message: message}
}

func (e *NarrationError) Error() string {
	return e.message
}

// SynthesisError reports that the speech backend failed or returned no
// audio. The session is back in idle when it is returned.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return "speech synthesis failed: " + e.Err.Error()
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// DecodeError reports a payload that could not be turned into samples.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decode narration audio: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsFailure reports whether err is a narration failure the caller should
// surface as a retry affordance, as opposed to a superseded request.
func IsFailure(err error) bool {
	var synth *SynthesisError
	var dec *DecodeError

	return errors.As(err, &synth) || errors.As(err, &dec)
}
