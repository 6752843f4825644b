package playback

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kisandost/kisandost-go/pkg/audio"
)

const chunkFrames = 480

// newDeviceless builds an output whose render is driven by the test instead
// of a miniaudio device thread.
func newDeviceless(t *testing.T) *MalgoOutput {
	t.Helper()

	return &MalgoOutput{
		logger:     zaptest.NewLogger(t),
		sampleRate: audio.NarrationSampleRate,
		channels:   1,
	}
}

func renderChunk(o *MalgoOutput) []float32 {
	out := make([]byte, chunkFrames*o.channels*bytesPerFloat32)
	o.render(out, nil, chunkFrames)

	samples := make([]float32, len(out)/bytesPerFloat32)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(out[i*bytesPerFloat32:]))
	}

	return samples
}

// ramp returns a mono buffer whose sample at frame i is i+1.
func ramp(frames int) *audio.SampleBuffer {
	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = float32(i + 1)
	}

	return &audio.SampleBuffer{
		SampleRate: audio.NarrationSampleRate,
		Channels:   [][]float32{samples},
	}
}

type endCounter struct {
	n atomic.Int32
}

func (c *endCounter) onEnded() { c.n.Add(1) }

func (c *endCounter) requireOnce(t *testing.T) {
	t.Helper()

	require.Eventually(t, func() bool { return c.n.Load() == 1 }, time.Second, time.Millisecond)
	assert.Never(t, func() bool { return c.n.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestMalgoOutput_ClockAdvancesWithRenderedFrames(t *testing.T) {
	o := newDeviceless(t)
	assert.Equal(t, time.Duration(0), o.Now())

	for range 3 {
		renderChunk(o)
	}

	assert.Equal(t, 60*time.Millisecond, o.Now())
}

func TestMalgoOutput_StartOffsetSeeksToFrame(t *testing.T) {
	o := newDeviceless(t)

	_, err := o.Start(ramp(24_000), 100*time.Millisecond, nil)
	require.NoError(t, err)

	samples := renderChunk(o)
	assert.Equal(t, float32(2401), samples[0])
	assert.Equal(t, float32(2401+chunkFrames-1), samples[chunkFrames-1])
}

func TestMalgoOutput_UpmixesMonoSource(t *testing.T) {
	o := newDeviceless(t)
	o.channels = 2

	_, err := o.Start(ramp(1000), 0, nil)
	require.NoError(t, err)

	samples := renderChunk(o)
	assert.Equal(t, []float32{1, 1, 2, 2}, samples[:4])
}

func TestMalgoOutput_NaturalEndFiresOnce(t *testing.T) {
	o := newDeviceless(t)
	ends := &endCounter{}

	_, err := o.Start(ramp(1000), 0, ends.onEnded)
	require.NoError(t, err)

	first := renderChunk(o)
	assert.Equal(t, float32(1), first[0])
	renderChunk(o)
	last := renderChunk(o)
	assert.Equal(t, float32(1000), last[1000-2*chunkFrames-1])
	assert.Equal(t, float32(0), last[1000-2*chunkFrames])

	ends.requireOnce(t)

	for _, s := range renderChunk(o) {
		require.Zero(t, s)
	}
	assert.Equal(t, audio.FramesToDuration(4*chunkFrames, audio.NarrationSampleRate), o.Now())
}

func TestMalgoOutput_StopFiresOnce(t *testing.T) {
	o := newDeviceless(t)
	ends := &endCounter{}

	h, err := o.Start(ramp(24_000), 0, ends.onEnded)
	require.NoError(t, err)
	renderChunk(o)

	h.Stop()
	h.Stop()
	ends.requireOnce(t)

	for _, s := range renderChunk(o) {
		require.Zero(t, s)
	}
}

func TestMalgoOutput_StartReplacesVoice(t *testing.T) {
	o := newDeviceless(t)
	first := &endCounter{}

	h, err := o.Start(ramp(24_000), 0, first.onEnded)
	require.NoError(t, err)

	_, err = o.Start(ramp(24_000), 200*time.Millisecond, nil)
	require.NoError(t, err)
	first.requireOnce(t)

	// Stopping the replaced voice must not silence the new one.
	h.Stop()
	assert.Equal(t, float32(4801), renderChunk(o)[0])
	assert.Equal(t, int32(1), first.n.Load())
}

func TestMalgoOutput_StartAfterClose(t *testing.T) {
	o := newDeviceless(t)
	ends := &endCounter{}

	_, err := o.Start(ramp(24_000), 0, ends.onEnded)
	require.NoError(t, err)

	require.NoError(t, o.Close())
	ends.requireOnce(t)

	_, err = o.Start(ramp(24_000), 0, nil)
	require.ErrorIs(t, err, ErrOutputClosed)
	assert.NoError(t, o.Close())
}

func TestMalgoOutput_DrivesTransportThroughPauseAndResume(t *testing.T) {
	o := newDeviceless(t)

	var (
		mu     sync.Mutex
		states []State
	)
	record := func(s State) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, s)
	}
	newOutput := func(int, int) (Output, error) { return o, nil }
	tr := NewTransport(zaptest.NewLogger(t), newOutput, WithStateListener(record))

	ticket := tr.BeginLoading()
	require.NoError(t, tr.Load(ticket, ramp(24_000)))

	for range 20 {
		renderChunk(o)
	}
	require.NoError(t, tr.Pause())
	assert.Equal(t, 400*time.Millisecond, tr.Position())

	// A paused transport keeps its position while the device clock runs.
	renderChunk(o)
	assert.Equal(t, 400*time.Millisecond, tr.Position())

	require.NoError(t, tr.Resume())
	assert.Equal(t, float32(9601), renderChunk(o)[0])
	for range 29 {
		renderChunk(o)
	}

	require.Eventually(t, func() bool { return tr.State() == StateEnded }, time.Second, time.Millisecond)
	assert.Equal(t, time.Second, tr.Position())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateLoading, StatePlaying, StatePaused, StatePlaying, StateEnded}, states)
}
