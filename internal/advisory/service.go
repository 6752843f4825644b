// Package advisory answers farmer questions and gives market sale advice.
package advisory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kisandost/kisandost-go/internal/chat"
	"github.com/kisandost/kisandost-go/internal/config"
)

var (
	ErrEmptyQuery   = errors.New("query is empty")
	ErrInvalidCrop  = errors.New("crop name is empty")
	ErrInvalidPrice = errors.New("price must be positive")
)

// Answer is a completed advisory reply.
type Answer struct {
	Text  string
	Model string
	Usage openai.Usage
}

// Service orchestrates advisory requests against the chat backend.
type Service struct {
	logger   *zap.Logger
	cfg      *config.Config
	provider chat.AIProvider
}

// NewService creates the advisory service.
func NewService(logger *zap.Logger, cfg *config.Config, provider chat.AIProvider) *Service {
	return &Service{
		logger:   logger.Named("advisory"),
		cfg:      cfg,
		provider: provider,
	}
}

// Reply answers a free-form question as the KisanDost persona. Each call is
// a fresh conversation.
func (s *Service) Reply(ctx context.Context, query string) (*Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	return s.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: s.cfg.Advisory.SystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: query},
	})
}

// SmartSale asks whether to hold or sell crop at the current price per
// quintal, with a target price prediction.
func (s *Service) SmartSale(ctx context.Context, crop string, price float64) (*Answer, error) {
	crop = strings.TrimSpace(crop)
	if crop == "" {
		return nil, ErrInvalidCrop
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}

	s.logger.Debug("Smart sale request", zap.String("crop", crop), zap.Float64("price", price))

	return s.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: SmartSalePrompt(crop, price, s.cfg.Advisory.SaleMaxWords)},
	})
}

// SmartSalePrompt builds the market advice prompt.
func SmartSalePrompt(crop string, price float64, maxWords int) string {
	return fmt.Sprintf(
		"Analyze current market trends for %s (Current Price: ₹%s). "+
			"Provide a concise smart sale advice (max %d words). "+
			"Should the farmer hold or sell? Include a target price prediction.",
		crop, strconv.FormatFloat(price, 'f', -1, 64), maxWords)
}

func (s *Service) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (*Answer, error) {
	model := s.cfg.OpenAI.ChatModel

	resp, err := s.provider.GetChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("advisory completion: %w", err)
	}

	return &Answer{
		Text:  strings.TrimSpace(resp.Choices[0].Message.Content),
		Model: model,
		Usage: resp.Usage,
	}, nil
}
