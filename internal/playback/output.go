package playback

import (
	"time"

	"github.com/kisandost/kisandost-go/pkg/audio"
)

// Output is a hardware audio output context. A Transport owns at most one
// Output at a time and closes it on teardown.
type Output interface {
	// Now reports the output's monotonic clock. It advances with rendered
	// audio, not with wall time.
	Now() time.Duration

	// Start schedules buf for playback beginning at offset. onEnded is called
	// once when the handle finishes, whether it ran to the end of buf or was
	// stopped. It is always delivered asynchronously, never from inside
	// Start or Handle.Stop.
	Start(buf *audio.SampleBuffer, offset time.Duration, onEnded func()) (Handle, error)

	// Close releases the context. Any active handle is stopped.
	Close() error
}

// Handle is a single scheduled play of a buffer. Each resume creates a new one.
type Handle interface {
	Stop()
}

// OutputFactory opens an Output for the given format.
type OutputFactory func(sampleRate, channels int) (Output, error)
