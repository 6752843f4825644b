package chat

import (
	"go.uber.org/fx"
)

// Module provides chat completion dependencies.
var Module = fx.Module("chat",
	fx.Provide(
		NewOpenAIProvider,
		NewOpenAIUsageFormatter,
	),
)
