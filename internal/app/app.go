// Package app provides the application container and lifecycle management.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kisandost/kisandost-go/internal/advisory"
	"github.com/kisandost/kisandost-go/internal/chat"
	"github.com/kisandost/kisandost-go/internal/config"
	"github.com/kisandost/kisandost-go/internal/infrastructure"
	"github.com/kisandost/kisandost-go/internal/narration"
	"github.com/kisandost/kisandost-go/internal/openai"
	"github.com/kisandost/kisandost-go/internal/playback"
	"github.com/kisandost/kisandost-go/internal/speech"
	"github.com/kisandost/kisandost-go/internal/verification"
)

// Modules returns every application module in dependency order.
func Modules() fx.Option {
	return fx.Options(
		// Core modules
		config.Module,
		infrastructure.LoggerModule,

		// External service modules
		openai.Module,
		playback.Module,

		// Application modules
		chat.Module,
		speech.Module,
		narration.Module,
		advisory.Module,
		verification.Module,
	)
}

// Application represents the main application with its lifecycle.
type Application struct {
	app *fx.App
}

// New creates a new Application with the provided modules and options.
func New(modules ...fx.Option) *Application {
	options := append(modules, fx.Invoke(registerLifecycleHooks))

	return &Application{
		app: fx.New(options...),
	}
}

// Err reports a container construction error.
func (a *Application) Err() error {
	return a.app.Err()
}

// Start runs every OnStart hook.
func (a *Application) Start(ctx context.Context) error {
	return a.app.Start(ctx)
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	return a.app.Stop(ctx)
}

// registerLifecycleHooks sets up the application lifecycle hooks.
func registerLifecycleHooks(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Application started",
				zap.String("chatModel", cfg.OpenAI.ChatModel),
				zap.String("speechModel", cfg.Narration.SpeechModel),
			)

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Application stopped")

			return nil
		},
	})
}
