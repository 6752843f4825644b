// Package openai provides AI backend pricing data.
package openai

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

// TokenPricing represents the cost of a model in USD.
type TokenPricing struct {
	InputPerMillion      float64  `json:"input_per_million"`      // per 1M input tokens
	OutputPerMillion     *float64 `json:"output_per_million"`     // per 1M output tokens (nil if not billed)
	CharactersPerMillion *float64 `json:"characters_per_million"` // per 1M input characters, speech models only
}

// ModelInfo contains detailed information about a model.
type ModelInfo struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Pricing     TokenPricing `json:"pricing"`
}

// PricingData contains all model pricing information.
type PricingData struct {
	Models      map[string]ModelInfo `json:"models"`
	LastUpdated time.Time            `json:"last_updated"`
	Currency    string               `json:"currency"`
	Note        string               `json:"note"`
}

// PricingService defines the interface for pricing operations.
type PricingService interface {
	// GetPricingData returns the loaded pricing data. Load errors are
	// reported in the Note of an empty data set.
	GetPricingData() *PricingData

	// GetModelPricing returns pricing information for a specific model.
	GetModelPricing(modelName string) (*ModelInfo, error)

	// CalculateTokenCost calculates the cost of a chat completion.
	CalculateTokenCost(modelName string, inputTokens, outputTokens int) (float64, error)

	// CalculateSpeechCost calculates the cost of synthesizing characters of text.
	CalculateSpeechCost(modelName string, characters int) (float64, error)

	// GetAvailableModels returns all model names, sorted.
	GetAvailableModels() []string
}

type pricingService struct {
	modelsFilePath string

	once sync.Once
	data *PricingData
}

// NewPricingService creates a PricingService reading modelsFilePath lazily.
func NewPricingService(modelsFilePath string) PricingService {
	return &pricingService{
		modelsFilePath: modelsFilePath,
	}
}

func (p *pricingService) loadPricingData() (*PricingData, error) {
	jsonData, err := os.ReadFile(p.modelsFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file: %w", err)
	}

	var pricingData PricingData
	if err := sonic.Unmarshal(jsonData, &pricingData); err != nil {
		return nil, fmt.Errorf("failed to parse pricing file: %w", err)
	}
	if pricingData.Models == nil {
		pricingData.Models = make(map[string]ModelInfo)
	}

	return &pricingData, nil
}

func (p *pricingService) GetPricingData() *PricingData {
	p.once.Do(func() {
		data, err := p.loadPricingData()
		if err != nil {
			data = &PricingData{
				Models:      make(map[string]ModelInfo),
				LastUpdated: time.Now(),
				Currency:    "USD",
				Note:        fmt.Sprintf("Error loading pricing data: %v", err),
			}
		}
		p.data = data
	})

	return p.data
}

func (p *pricingService) GetModelPricing(modelName string) (*ModelInfo, error) {
	if model, exists := p.GetPricingData().Models[modelName]; exists {
		return &model, nil
	}

	return nil, fmt.Errorf("pricing data not found for model: %s", modelName)
}

func (p *pricingService) CalculateTokenCost(modelName string, inputTokens, outputTokens int) (float64, error) {
	model, err := p.GetModelPricing(modelName)
	if err != nil {
		return 0, err
	}

	cost := perMillion(inputTokens, model.Pricing.InputPerMillion)
	if model.Pricing.OutputPerMillion != nil {
		cost += perMillion(outputTokens, *model.Pricing.OutputPerMillion)
	}

	return cost, nil
}

func (p *pricingService) CalculateSpeechCost(modelName string, characters int) (float64, error) {
	model, err := p.GetModelPricing(modelName)
	if err != nil {
		return 0, err
	}

	if model.Pricing.CharactersPerMillion == nil {
		return 0, fmt.Errorf("model %s has no per-character pricing", modelName)
	}

	return perMillion(characters, *model.Pricing.CharactersPerMillion), nil
}

func (p *pricingService) GetAvailableModels() []string {
	pricingData := p.GetPricingData()
	models := make([]string, 0, len(pricingData.Models))
	for modelName := range pricingData.Models {
		models = append(models, modelName)
	}
	sort.Strings(models)

	return models
}

func perMillion(units int, price float64) float64 {
	return float64(units) / 1_000_000 * price
}
