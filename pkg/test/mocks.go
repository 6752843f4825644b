// Package test provides testify mocks shared across package tests.
package test

import (
	"context"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/mock"

	pkgopenai "github.com/kisandost/kisandost-go/pkg/openai"
)

// MockPricingService is a testify mock of pkgopenai.PricingService.
type MockPricingService struct {
	mock.Mock
}

var _ pkgopenai.PricingService = (*MockPricingService)(nil)

// NewMockPricingService creates a mock whose expectations are asserted on cleanup.
func NewMockPricingService(t *testing.T) *MockPricingService {
	m := &MockPricingService{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockPricingService) GetPricingData() *pkgopenai.PricingData {
	args := m.Called()
	if data, ok := args.Get(0).(*pkgopenai.PricingData); ok {
		return data
	}

	return nil
}

func (m *MockPricingService) GetModelPricing(modelName string) (*pkgopenai.ModelInfo, error) {
	args := m.Called(modelName)
	info, _ := args.Get(0).(*pkgopenai.ModelInfo)

	return info, args.Error(1)
}

func (m *MockPricingService) CalculateTokenCost(modelName string, inputTokens, outputTokens int) (float64, error) {
	args := m.Called(modelName, inputTokens, outputTokens)

	return args.Get(0).(float64), args.Error(1)
}

func (m *MockPricingService) CalculateSpeechCost(modelName string, characters int) (float64, error) {
	args := m.Called(modelName, characters)

	return args.Get(0).(float64), args.Error(1)
}

func (m *MockPricingService) GetAvailableModels() []string {
	args := m.Called()
	models, _ := args.Get(0).([]string)

	return models
}

// MockAIProvider is a testify mock of the chat completion provider.
type MockAIProvider struct {
	mock.Mock
}

// NewMockAIProvider creates a mock whose expectations are asserted on cleanup.
func NewMockAIProvider(t *testing.T) *MockAIProvider {
	m := &MockAIProvider{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockAIProvider) GetChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, request)
	resp, _ := args.Get(0).(*openai.ChatCompletionResponse)

	return resp, args.Error(1)
}

// ChatResponse builds a single-choice completion response.
func ChatResponse(model, content string) *openai.ChatCompletionResponse {
	return &openai.ChatCompletionResponse{
		Model: model,
		Choices: []openai.ChatCompletionChoice{{
			Index:   0,
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
		}},
		Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}
