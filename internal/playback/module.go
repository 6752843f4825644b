package playback

import "go.uber.org/fx"

// Module provides the hardware OutputFactory used by narration transports.
var Module = fx.Module("playback",
	fx.Provide(NewMalgoOutputFactory),
)
