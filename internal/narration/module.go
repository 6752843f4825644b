package narration

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the narration SessionManager. Sessions still alive at
// shutdown are disposed so no audio device is left open.
var Module = fx.Module("narration",
	fx.Provide(NewSessionManager),
	fx.Invoke(registerShutdown),
)

func registerShutdown(lc fx.Lifecycle, sm SessionManager, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Ending narration sessions", zap.Int("count", len(sm.ActiveSessions())))
			sm.EndAll()

			return nil
		},
	})
}
