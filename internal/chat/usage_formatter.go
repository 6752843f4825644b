package chat

import (
	"fmt"

	"github.com/sashabaranov/go-openai"

	pkgopenai "github.com/kisandost/kisandost-go/pkg/openai"
)

// UsageFormatter renders token usage for the CLI.
type UsageFormatter interface {
	FormatUsage(usage openai.Usage, modelName string) string
}

type openAIUsageFormatter struct {
	pricingService pkgopenai.PricingService
}

// NewOpenAIUsageFormatter creates a new usage formatter.
func NewOpenAIUsageFormatter(pricingService pkgopenai.PricingService) UsageFormatter {
	return &openAIUsageFormatter{
		pricingService: pricingService,
	}
}

// FormatUsage formats usage with the estimated cost when the model is priced.
func (f *openAIUsageFormatter) FormatUsage(usage openai.Usage, modelName string) string {
	line := fmt.Sprintf("Input: %d | Output: %d | Total: %d tokens",
		usage.PromptTokens,
		usage.CompletionTokens,
		usage.TotalTokens)

	cost, err := f.pricingService.CalculateTokenCost(modelName, usage.PromptTokens, usage.CompletionTokens)
	if err != nil {
		return line
	}

	return fmt.Sprintf("%s\nCost: $%.6f", line, cost)
}
