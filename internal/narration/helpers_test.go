package narration_test

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kisandost/kisandost-go/pkg/audio"
)

type mockSynthesizer struct {
	mock.Mock
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

// pcmPayload returns a base64 mono PCM16 payload of the given length at the
// narration sample rate.
func pcmPayload(d time.Duration) string {
	frames := audio.DurationToFrames(d, audio.NarrationSampleRate)
	samples := make([]int16, frames)
	for i := range samples {
		samples[i] = int16(i % 1000)
	}
	return base64.StdEncoding.EncodeToString(audio.PCMInt16ToLE(samples))
}

type synthResult struct {
	payload string
	err     error
}

// gatedSynthesizer blocks every call until the test releases it.
type gatedSynthesizer struct {
	mu      sync.Mutex
	gates   map[string]chan synthResult
	entered chan string
}

func newGatedSynthesizer() *gatedSynthesizer {
	return &gatedSynthesizer{
		gates:   make(map[string]chan synthResult),
		entered: make(chan string, 16),
	}
}

func (g *gatedSynthesizer) gate(text string) chan synthResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch, ok := g.gates[text]
	if !ok {
		ch = make(chan synthResult, 1)
		g.gates[text] = ch
	}
	return ch
}

func (g *gatedSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	ch := g.gate(text)
	g.entered <- text

	select {
	case r := <-ch:
		return r.payload, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *gatedSynthesizer) release(text string, payload string, err error) {
	g.gate(text) <- synthResult{payload: payload, err: err}
}

func (g *gatedSynthesizer) waitEntered(t *testing.T, text string) {
	t.Helper()

	select {
	case got := <-g.entered:
		require.Equal(t, text, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("synthesis of %q never started", text)
	}
}
