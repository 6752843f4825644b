package config

import (
	"go.uber.org/fx"
)

// Module loads *Config from the supplied path and exposes its sections.
var Module = fx.Module("config",
	fx.Provide(
		LoadConfig,
		func(cfg *Config) *NarrationConfig { return &cfg.Narration },
		func(cfg *Config) *OpenAIConfig { return &cfg.OpenAI },
	),
)
