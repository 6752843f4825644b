// Package chat wraps the AI backend's chat completion endpoint.
package chat

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	pkgopenai "github.com/kisandost/kisandost-go/pkg/openai"
)

// ErrEmptyResponse is returned when the backend answers without content.
var ErrEmptyResponse = errors.New("AI backend returned empty response")

// AIProvider defines the interface for interacting with an AI chat completion service.
type AIProvider interface {
	GetChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error)
}

// CompletionClient is the subset of *openai.Client used by the provider.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewOpenAIProvider creates a new OpenAI-based AIProvider implementation.
func NewOpenAIProvider(logger *zap.Logger, client *openai.Client, pricingService pkgopenai.PricingService) AIProvider {
	return newOpenAIProvider(logger, client, pricingService)
}

func newOpenAIProvider(logger *zap.Logger, client CompletionClient, pricingService pkgopenai.PricingService) *openAIProvider {
	return &openAIProvider{
		logger:         logger.Named("openai_provider"),
		client:         client,
		pricingService: pricingService,
	}
}

type openAIProvider struct {
	logger         *zap.Logger
	client         CompletionClient
	pricingService pkgopenai.PricingService
}

// GetChatCompletion sends a chat completion request and returns the response.
func (oai *openAIProvider) GetChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	oai.logger.Info("Sending request to AI backend",
		zap.String("model", request.Model),
		zap.Int("messageCount", len(request.Messages)),
		zap.Bool("jsonResponse", request.ResponseFormat != nil),
	)

	aiResponse, err := oai.client.CreateChatCompletion(ctx, request)
	if err != nil {
		oai.logger.Error("Failed to get response from AI backend", zap.Error(err))

		return nil, err
	}

	if len(aiResponse.Choices) == 0 || aiResponse.Choices[0].Message.Content == "" {
		oai.logger.Warn("AI backend returned an empty response", zap.String("id", aiResponse.ID))

		return nil, ErrEmptyResponse
	}

	cost, costErr := oai.pricingService.CalculateTokenCost(
		request.Model,
		aiResponse.Usage.PromptTokens,
		aiResponse.Usage.CompletionTokens,
	)

	logFields := []zap.Field{
		zap.Int("promptTokens", aiResponse.Usage.PromptTokens),
		zap.Int("completionTokens", aiResponse.Usage.CompletionTokens),
		zap.Int("totalTokens", aiResponse.Usage.TotalTokens),
	}

	if costErr == nil {
		logFields = append(logFields, zap.Float64("estimatedCostUSD", cost))
	} else {
		logFields = append(logFields, zap.String("costCalculationError", costErr.Error()))
	}

	oai.logger.Info("Received response from AI backend", logFields...)

	return &aiResponse, nil
}
