package chat_test

import (
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"

	"github.com/kisandost/kisandost-go/internal/chat"
	"github.com/kisandost/kisandost-go/pkg/test"
)

func TestOpenAIUsageFormatter_FormatUsage_StandardCase(t *testing.T) {
	mockPricing := test.NewMockPricingService(t)

	formatter := chat.NewOpenAIUsageFormatter(mockPricing)

	usage := openai.Usage{
		PromptTokens:     100,
		CompletionTokens: 50,
		TotalTokens:      150,
	}

	mockPricing.On("CalculateTokenCost", "gpt-4o-mini", 100, 50).Return(0.0045, nil)

	result := formatter.FormatUsage(usage, "gpt-4o-mini")

	assert.Contains(t, result, "Input: 100")
	assert.Contains(t, result, "Output: 50")
	assert.Contains(t, result, "Total: 150")
	assert.Contains(t, result, "Cost: $0.004500")
}

func TestOpenAIUsageFormatter_FormatUsage_CostCalculationError(t *testing.T) {
	mockPricing := test.NewMockPricingService(t)

	formatter := chat.NewOpenAIUsageFormatter(mockPricing)

	usage := openai.Usage{
		PromptTokens:     100,
		CompletionTokens: 50,
		TotalTokens:      150,
	}

	mockPricing.On("CalculateTokenCost", "unknown-model", 100, 50).Return(0.0, assert.AnError)

	result := formatter.FormatUsage(usage, "unknown-model")

	assert.Contains(t, result, "Input: 100")
	assert.Contains(t, result, "Total: 150")
	assert.NotContains(t, result, "Cost:")
}
