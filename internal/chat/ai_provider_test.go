package chat

import (
	"context"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kisandost/kisandost-go/pkg/test"
)

type mockCompletionClient struct {
	mock.Mock
}

func (m *mockCompletionClient) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func TestOpenAIProvider_GetChatCompletion(t *testing.T) {
	request := openai.ChatCompletionRequest{
		Model:    "gpt-4o-mini",
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hi"}},
	}

	tests := map[string]struct {
		response  openai.ChatCompletionResponse
		clientErr error
		costErr   error
		wantErr   error
	}{
		"success": {
			response: *test.ChatResponse("gpt-4o-mini", "hello"),
		},
		"success without pricing": {
			response: *test.ChatResponse("gpt-4o-mini", "hello"),
			costErr:  assert.AnError,
		},
		"client error": {
			clientErr: assert.AnError,
			wantErr:   assert.AnError,
		},
		"no choices": {
			response: openai.ChatCompletionResponse{},
			wantErr:  ErrEmptyResponse,
		},
		"empty content": {
			response: *test.ChatResponse("gpt-4o-mini", ""),
			wantErr:  ErrEmptyResponse,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			client := &mockCompletionClient{}
			client.On("CreateChatCompletion", mock.Anything, request).Return(tt.response, tt.clientErr)

			pricing := test.NewMockPricingService(t)
			if tt.wantErr == nil {
				pricing.On("CalculateTokenCost", "gpt-4o-mini", 10, 5).Return(0.001, tt.costErr)
			}

			provider := newOpenAIProvider(zaptest.NewLogger(t), client, pricing)

			resp, err := provider.GetChatCompletion(context.Background(), request)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "hello", resp.Choices[0].Message.Content)
			client.AssertExpectations(t)
		})
	}
}
