// Package config loads the YAML application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// APIKeyEnv overrides openai.api_key when set.
const APIKeyEnv = "KISANDOST_OPENAI_API_KEY"

// OpenAIConfig stores AI backend configuration.
type OpenAIConfig struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	ChatModel      string        `yaml:"chat_model"`
	VisionModel    string        `yaml:"vision_model"`
	PricingFile    string        `yaml:"pricing_file"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// NarrationConfig stores speech synthesis and playback configuration.
type NarrationConfig struct {
	SampleRate       int           `yaml:"sample_rate"`
	Channels         int           `yaml:"channels"`
	SpeechModel      string        `yaml:"speech_model"`
	Voice            string        `yaml:"voice"`
	Instructions     string        `yaml:"instructions"`
	CacheSize        int           `yaml:"cache_size"`
	MaxSessions      int           `yaml:"max_sessions"`
	SynthesisTimeout time.Duration `yaml:"synthesis_timeout"`
}

// AdvisoryConfig stores the chat advisor persona.
type AdvisoryConfig struct {
	SystemPrompt string `yaml:"system_prompt"`
	SaleMaxWords int    `yaml:"sale_max_words"`
}

// Config stores the application configuration.
type Config struct {
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Narration NarrationConfig `yaml:"narration"`
	Advisory  AdvisoryConfig  `yaml:"advisory"`
	LogLevel  string          `yaml:"log_level"`
}

// Defaults.
const (
	DefaultChatModel        = "gpt-4o-mini"
	DefaultSpeechModel      = "gpt-4o-mini-tts"
	DefaultVoice            = "alloy"
	DefaultInstructions     = "Explain clearly in simple English: "
	DefaultSampleRate       = 24_000
	DefaultChannels         = 1
	DefaultCacheSize        = 32
	DefaultMaxSessions      = 8
	DefaultSynthesisTimeout = 60 * time.Second
	DefaultRequestTimeout   = 90 * time.Second
	DefaultSaleMaxWords     = 40
	DefaultSystemPrompt     = "You are KisanDost, a friendly and expert agricultural advisor. " +
		"Help farmers with crop choices, soil health, pest control, and market navigation. " +
		"Keep advice practical and localized to India."
)

// LoadConfig loads the configuration from the given file path.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}

	if key := os.Getenv(APIKeyEnv); key != "" {
		cfg.OpenAI.APIKey = key
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = DefaultChatModel
	}
	if c.OpenAI.VisionModel == "" {
		c.OpenAI.VisionModel = c.OpenAI.ChatModel
	}
	if c.OpenAI.RequestTimeout == 0 {
		c.OpenAI.RequestTimeout = DefaultRequestTimeout
	}

	n := &c.Narration
	if n.SampleRate == 0 {
		n.SampleRate = DefaultSampleRate
	}
	if n.Channels == 0 {
		n.Channels = DefaultChannels
	}
	if n.SpeechModel == "" {
		n.SpeechModel = DefaultSpeechModel
	}
	if n.Voice == "" {
		n.Voice = DefaultVoice
	}
	if n.Instructions == "" {
		n.Instructions = DefaultInstructions
	}
	if n.CacheSize == 0 {
		n.CacheSize = DefaultCacheSize
	}
	if n.MaxSessions == 0 {
		n.MaxSessions = DefaultMaxSessions
	}
	if n.SynthesisTimeout == 0 {
		n.SynthesisTimeout = DefaultSynthesisTimeout
	}

	if c.Advisory.SystemPrompt == "" {
		c.Advisory.SystemPrompt = DefaultSystemPrompt
	}
	if c.Advisory.SaleMaxWords == 0 {
		c.Advisory.SaleMaxWords = DefaultSaleMaxWords
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate rejects settings the narration pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error

	// Speech arrives as raw pcm with no header, so the format is fixed.
	if n := c.Narration.SampleRate; n != 0 && n != DefaultSampleRate {
		errs = append(errs, fmt.Errorf("narration.sample_rate must be %d (raw pcm speech format), got %d",
			DefaultSampleRate, n))
	}
	if n := c.Narration.Channels; n != 0 && n != DefaultChannels {
		errs = append(errs, fmt.Errorf("narration.channels must be %d (raw pcm speech format), got %d",
			DefaultChannels, n))
	}
	if c.Narration.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("narration.cache_size must not be negative, got %d", c.Narration.CacheSize))
	}
	if c.Narration.MaxSessions < 0 {
		errs = append(errs, fmt.Errorf("narration.max_sessions must not be negative, got %d", c.Narration.MaxSessions))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}

	return errors.Join(errs...)
}
