package advisory

import (
	"context"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kisandost/kisandost-go/internal/config"
	"github.com/kisandost/kisandost-go/pkg/test"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.ApplyDefaults()

	return cfg
}

func TestService_Reply(t *testing.T) {
	provider := test.NewMockAIProvider(t)
	cfg := testConfig()

	provider.On("GetChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == config.DefaultChatModel &&
			len(req.Messages) == 2 &&
			req.Messages[0].Role == openai.ChatMessageRoleSystem &&
			req.Messages[0].Content == config.DefaultSystemPrompt &&
			req.Messages[1].Content == "When should I sow wheat?"
	})).Return(test.ChatResponse(config.DefaultChatModel, "  Sow in November.\n"), nil)

	svc := NewService(zaptest.NewLogger(t), cfg, provider)

	answer, err := svc.Reply(context.Background(), "  When should I sow wheat?  ")
	require.NoError(t, err)
	assert.Equal(t, "Sow in November.", answer.Text)
	assert.Equal(t, config.DefaultChatModel, answer.Model)
	assert.Equal(t, 15, answer.Usage.TotalTokens)
}

func TestService_Reply_Errors(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		svc := NewService(zaptest.NewLogger(t), testConfig(), test.NewMockAIProvider(t))

		_, err := svc.Reply(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("backend error", func(t *testing.T) {
		provider := test.NewMockAIProvider(t)
		provider.On("GetChatCompletion", mock.Anything, mock.Anything).Return(nil, assert.AnError)
		svc := NewService(zaptest.NewLogger(t), testConfig(), provider)

		_, err := svc.Reply(context.Background(), "hello")
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestService_SmartSale(t *testing.T) {
	provider := test.NewMockAIProvider(t)

	var got openai.ChatCompletionRequest
	provider.On("GetChatCompletion", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(1).(openai.ChatCompletionRequest) }).
		Return(test.ChatResponse(config.DefaultChatModel, "Hold. Target ₹3600."), nil)

	svc := NewService(zaptest.NewLogger(t), testConfig(), provider)

	answer, err := svc.SmartSale(context.Background(), "Basmati Rice", 3450)
	require.NoError(t, err)
	assert.Equal(t, "Hold. Target ₹3600.", answer.Text)

	require.Len(t, got.Messages, 1)
	assert.Equal(t, SmartSalePrompt("Basmati Rice", 3450, config.DefaultSaleMaxWords), got.Messages[0].Content)
}

func TestService_SmartSale_InvalidInput(t *testing.T) {
	svc := NewService(zaptest.NewLogger(t), testConfig(), test.NewMockAIProvider(t))

	_, err := svc.SmartSale(context.Background(), "", 100)
	assert.ErrorIs(t, err, ErrInvalidCrop)

	_, err = svc.SmartSale(context.Background(), "Wheat", 0)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestSmartSalePrompt(t *testing.T) {
	prompt := SmartSalePrompt("Wheat (Sharbati)", 2100.5, 40)

	assert.Contains(t, prompt, "Wheat (Sharbati)")
	assert.Contains(t, prompt, "₹2100.5")
	assert.Contains(t, prompt, "max 40 words")
	assert.Contains(t, prompt, "hold or sell")
}
