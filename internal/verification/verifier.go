package verification

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kisandost/kisandost-go/internal/chat"
	"github.com/kisandost/kisandost-go/internal/config"
)

// ErrNoImage is returned for an empty image.
var ErrNoImage = errors.New("no image to verify")

const classifyPrompt = "Act as a specialized agricultural fraud detection AI. " +
	"Analyze this product image (fertilizer or seeds). Determine if it looks authentic. " +
	"Return JSON with fields: status (success|failure), productName, brand, batchNumber, expiryDate, serial."

const defaultMimeType = "image/jpeg"

// Verifier sends product photos to the vision model.
type Verifier struct {
	logger   *zap.Logger
	cfg      *config.Config
	provider chat.AIProvider
	now      func() time.Time
}

// NewVerifier creates a Verifier.
func NewVerifier(logger *zap.Logger, cfg *config.Config, provider chat.AIProvider) *Verifier {
	return &Verifier{
		logger:   logger.Named("verification"),
		cfg:      cfg,
		provider: provider,
		now:      time.Now,
	}
}

// Classify verifies a base64 encoded JPEG.
func (v *Verifier) Classify(ctx context.Context, imageBase64 string) (*Result, error) {
	return v.classify(ctx, strings.TrimSpace(imageBase64), defaultMimeType)
}

// ClassifyImage verifies raw image bytes, detecting their content type.
func (v *Verifier) ClassifyImage(ctx context.Context, image []byte) (*Result, error) {
	if len(image) == 0 {
		return nil, ErrNoImage
	}

	mimeType := http.DetectContentType(image)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = defaultMimeType
	}

	return v.classify(ctx, base64.StdEncoding.EncodeToString(image), mimeType)
}

func (v *Verifier) classify(ctx context.Context, imageBase64, mimeType string) (*Result, error) {
	if imageBase64 == "" {
		return nil, ErrNoImage
	}

	resp, err := v.provider.GetChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.cfg.OpenAI.VisionModel,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    "data:" + mimeType + ";base64," + imageBase64,
						Detail: openai.ImageURLDetailAuto,
					},
				},
				{Type: openai.ChatMessagePartTypeText, Text: classifyPrompt},
			},
		}},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("classify product image: %w", err)
	}

	result := parseResult(resp.Choices[0].Message.Content)
	result.VerificationTime = v.now()

	v.logger.Info("Product classified",
		zap.String("status", string(result.Status)),
		zap.String("product", result.ProductName),
		zap.String("brand", result.Brand),
	)

	return result, nil
}
