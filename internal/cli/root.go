// Package cli implements the kisandost command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/kisandost/kisandost-go/internal/app"
	"github.com/kisandost/kisandost-go/internal/config"
	"github.com/kisandost/kisandost-go/internal/infrastructure"
)

const (
	startTimeout = 15 * time.Second
	stopTimeout  = 30 * time.Second
)

type rootOptions struct {
	configPath string
	logLevel   string

	// overrides are appended to the container options; tests use them to
	// decorate backend and hardware dependencies.
	overrides []fx.Option
}

// NewRootCommand builds the kisandost command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&rootOptions{})
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kisandost",
		Short:         "Farmer assistant: narrated guides, crop advice and supply verification",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log_level (debug, info, warn, error)")

	cmd.AddCommand(
		newNarrateCommand(opts),
		newAskCommand(opts),
		newSellCommand(opts),
		newVerifyCommand(opts),
	)

	return cmd
}

// run builds the application container, populates targets, starts it and
// calls fn. The container is stopped when fn returns.
func (o *rootOptions) run(cmd *cobra.Command, targets []any, fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	options := []fx.Option{
		app.Modules(),
		fx.Supply(o.configPath),
		fx.WithLogger(infrastructure.NewFxLoggerAdapter),
		fx.Populate(targets...),
	}
	if o.logLevel != "" {
		level := o.logLevel
		options = append(options, fx.Decorate(func(cfg *config.Config) *config.Config {
			cfg.LogLevel = level
			return cfg
		}))
	}
	options = append(options, o.overrides...)

	application := app.New(options...)
	if err := application.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := application.Start(startCtx); err != nil {
		return err
	}

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()

		if err := application.Stop(stopCtx); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "shutdown: %v\n", err)
		}
	}()

	return fn(ctx)
}
