// Package speech turns narration text into PCM16 speech payloads.
package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kisandost/kisandost-go/internal/config"
	"github.com/kisandost/kisandost-go/internal/narration"
	pkgopenai "github.com/kisandost/kisandost-go/pkg/openai"
)

// SpeechClient is the subset of the AI backend client used for synthesis.
type SpeechClient interface {
	CreateSpeech(ctx context.Context, request openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// OpenAISynthesizer requests raw PCM speech (24 kHz, 16-bit, mono) and
// returns it base64 encoded.
type OpenAISynthesizer struct {
	logger         *zap.Logger
	client         SpeechClient
	cfg            *config.NarrationConfig
	pricingService pkgopenai.PricingService
}

var _ narration.Synthesizer = (*OpenAISynthesizer)(nil)

// NewOpenAISynthesizer creates a synthesizer backed by the speech endpoint.
func NewOpenAISynthesizer(
	logger *zap.Logger,
	cfg *config.NarrationConfig,
	client *openai.Client,
	pricingService pkgopenai.PricingService,
) *OpenAISynthesizer {
	return newOpenAISynthesizer(logger, cfg, client, pricingService)
}

func newOpenAISynthesizer(
	logger *zap.Logger,
	cfg *config.NarrationConfig,
	client SpeechClient,
	pricingService pkgopenai.PricingService,
) *OpenAISynthesizer {
	return &OpenAISynthesizer{
		logger:         logger.Named("speech"),
		client:         client,
		cfg:            cfg,
		pricingService: pricingService,
	}
}

// Synthesize implements narration.Synthesizer.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	input := s.cfg.Instructions + text

	s.logger.Info("Requesting speech",
		zap.String("model", s.cfg.SpeechModel),
		zap.String("voice", s.cfg.Voice),
		zap.Int("characters", len(input)),
	)

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.cfg.SpeechModel),
		Input:          input,
		Voice:          openai.SpeechVoice(s.cfg.Voice),
		ResponseFormat: openai.SpeechResponseFormatPcm,
	})
	if err != nil {
		s.logger.Error("Speech request failed", zap.Error(err))

		return "", fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return "", fmt.Errorf("read speech body: %w", err)
	}
	if len(pcm) == 0 {
		return "", errors.New("speech endpoint returned an empty body")
	}

	logFields := []zap.Field{zap.Int("bytes", len(pcm))}
	if cost, costErr := s.pricingService.CalculateSpeechCost(s.cfg.SpeechModel, len(input)); costErr == nil {
		logFields = append(logFields, zap.Float64("estimatedCostUSD", cost))
	} else {
		logFields = append(logFields, zap.String("costCalculationError", costErr.Error()))
	}
	s.logger.Info("Received speech", logFields...)

	return base64.StdEncoding.EncodeToString(pcm), nil
}
