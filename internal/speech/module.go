package speech

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kisandost/kisandost-go/internal/config"
	"github.com/kisandost/kisandost-go/internal/narration"
)

// Module provides the narration.Synthesizer.
var Module = fx.Module("speech",
	fx.Provide(
		NewOpenAISynthesizer,
		NewSynthesizer,
	),
)

// NewSynthesizer wraps the backend synthesizer in a cache sized from config.
func NewSynthesizer(logger *zap.Logger, cfg *config.NarrationConfig, base *OpenAISynthesizer) (narration.Synthesizer, error) {
	size := cfg.CacheSize
	if size <= 0 {
		logger.Warn("Narration cache is disabled", zap.Int("configuredSize", size))

		return base, nil
	}
	logger.Info("Creating speech cache", zap.Int("size", size))

	return NewCachedSynthesizer(logger, base, size)
}
