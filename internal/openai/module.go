// Package openai provides the AI backend client and Fx modules.
package openai

import (
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kisandost/kisandost-go/internal/config"
	pkgopenai "github.com/kisandost/kisandost-go/pkg/openai"
)

// DefaultPricingFile is read when openai.pricing_file is unset.
const DefaultPricingFile = "models.json"

// Module provides AI backend dependencies.
var Module = fx.Module("openai",
	fx.Provide(
		NewClient,
		NewPricingService,
	),
)

// NewClient creates an OpenAI-compatible client. base_url may point at any
// compatible endpoint.
func NewClient(cfg *config.Config, logger *zap.Logger) (*openai.Client, error) {
	if cfg.OpenAI.APIKey == "" {
		logger.Error("AI backend API key is not configured",
			zap.String("env", config.APIKeyEnv))

		return nil, errors.New("openai.api_key is not configured")
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAI.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.OpenAI.RequestTimeout}

	logger.Info("AI backend client created", zap.String("base_url", clientCfg.BaseURL))

	return openai.NewClientWithConfig(clientCfg), nil
}

// NewPricingService creates the pricing service from the configured file.
func NewPricingService(cfg *config.Config, logger *zap.Logger) pkgopenai.PricingService {
	path := cfg.OpenAI.PricingFile
	if path == "" {
		path = DefaultPricingFile
	}
	logger.Debug("Pricing service created", zap.String("file", path))

	return pkgopenai.NewPricingService(path)
}
