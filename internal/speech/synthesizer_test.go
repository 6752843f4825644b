package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kisandost/kisandost-go/internal/config"
	pkgopenai "github.com/kisandost/kisandost-go/pkg/openai"
)

func testNarrationConfig() *config.NarrationConfig {
	return &config.NarrationConfig{
		SpeechModel:  config.DefaultSpeechModel,
		Voice:        config.DefaultVoice,
		Instructions: config.DefaultInstructions,
		CacheSize:    4,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	clientCfg := openai.DefaultConfig("test-key")
	clientCfg.BaseURL = srv.URL + "/v1"

	return openai.NewClientWithConfig(clientCfg)
}

func noPricing(t *testing.T) pkgopenai.PricingService {
	return pkgopenai.NewPricingService(filepath.Join(t.TempDir(), "models.json"))
}

func TestOpenAISynthesizer_Synthesize(t *testing.T) {
	pcm := []byte{0x00, 0x40, 0x00, 0xc0}

	var got openai.CreateSpeechRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, sonic.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "audio/pcm")
		_, _ = w.Write(pcm)
	})

	synth := NewOpenAISynthesizer(zaptest.NewLogger(t), testNarrationConfig(), client, noPricing(t))

	payload, err := synth.Synthesize(context.Background(), "Wheat needs nitrogen.")
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pcm), payload)

	assert.Equal(t, "Explain clearly in simple English: Wheat needs nitrogen.", got.Input)
	assert.Equal(t, openai.SpeechResponseFormatPcm, got.ResponseFormat)
	assert.Equal(t, openai.SpeechVoice(config.DefaultVoice), got.Voice)
	assert.Equal(t, openai.SpeechModel(config.DefaultSpeechModel), got.Model)
}

func TestOpenAISynthesizer_Errors(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"backend error": func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
		},
		"empty body": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	}

	for name, handler := range tests {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, handler)
			synth := NewOpenAISynthesizer(zaptest.NewLogger(t), testNarrationConfig(), client, noPricing(t))

			payload, err := synth.Synthesize(context.Background(), "text")
			assert.Error(t, err)
			assert.Empty(t, payload)
		})
	}
}

type mockSynthesizer struct {
	mock.Mock
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func TestCachedSynthesizer(t *testing.T) {
	next := &mockSynthesizer{}
	next.On("Synthesize", mock.Anything, "guide").Return("AAA=", nil).Once()

	cached, err := NewCachedSynthesizer(zaptest.NewLogger(t), next, 2)
	require.NoError(t, err)

	for range 3 {
		payload, err := cached.Synthesize(context.Background(), "guide")
		require.NoError(t, err)
		assert.Equal(t, "AAA=", payload)
	}
	assert.Equal(t, 1, cached.Len())
	next.AssertExpectations(t)

	cached.Purge()
	assert.Zero(t, cached.Len())
}

func TestCachedSynthesizer_FailuresAreNotCached(t *testing.T) {
	boom := errors.New("boom")
	next := &mockSynthesizer{}
	next.On("Synthesize", mock.Anything, "guide").Return("", boom).Once()
	next.On("Synthesize", mock.Anything, "guide").Return("AAA=", nil).Once()

	cached, err := NewCachedSynthesizer(zaptest.NewLogger(t), next, 2)
	require.NoError(t, err)

	_, err = cached.Synthesize(context.Background(), "guide")
	require.ErrorIs(t, err, boom)
	assert.Zero(t, cached.Len())

	payload, err := cached.Synthesize(context.Background(), "guide")
	require.NoError(t, err)
	assert.Equal(t, "AAA=", payload)
	next.AssertExpectations(t)
}

func TestCachedSynthesizer_InvalidSize(t *testing.T) {
	_, err := NewCachedSynthesizer(zaptest.NewLogger(t), &mockSynthesizer{}, 0)
	assert.Error(t, err)
}

func TestNewSynthesizer(t *testing.T) {
	logger := zaptest.NewLogger(t)
	base := newOpenAISynthesizer(logger, testNarrationConfig(), nil, noPricing(t))

	synth, err := NewSynthesizer(logger, testNarrationConfig(), base)
	require.NoError(t, err)
	assert.IsType(t, &CachedSynthesizer{}, synth)

	disabled := testNarrationConfig()
	disabled.CacheSize = 0
	synth, err = NewSynthesizer(logger, disabled, base)
	require.NoError(t, err)
	assert.Same(t, base, synth)
}
