package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kisandost/kisandost-go/internal/advisory"
	"github.com/kisandost/kisandost-go/internal/chat"
	"github.com/kisandost/kisandost-go/internal/narration"
)

type answerFlags struct {
	speak bool
	usage bool
}

func (f *answerFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.speak, "speak", false, "read the answer aloud")
	cmd.Flags().BoolVar(&f.usage, "usage", false, "print token usage and estimated cost")
}

func newAskCommand(opts *rootOptions) *cobra.Command {
	var flags answerFlags

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask the agricultural advisor a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnswer(cmd, opts, flags, func(ctx context.Context, svc *advisory.Service) (*advisory.Answer, error) {
				return svc.Reply(ctx, strings.Join(args, " "))
			})
		},
	}
	flags.register(cmd)

	return cmd
}

func newSellCommand(opts *rootOptions) *cobra.Command {
	var flags answerFlags

	cmd := &cobra.Command{
		Use:   "sell <crop> <price>",
		Short: "Get hold-or-sell advice for a crop at the current mandi price",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", args[1], err)
			}

			return runAnswer(cmd, opts, flags, func(ctx context.Context, svc *advisory.Service) (*advisory.Answer, error) {
				return svc.SmartSale(ctx, args[0], price)
			})
		},
	}
	flags.register(cmd)

	return cmd
}

func runAnswer(
	cmd *cobra.Command,
	opts *rootOptions,
	flags answerFlags,
	ask func(context.Context, *advisory.Service) (*advisory.Answer, error),
) error {
	var (
		svc       *advisory.Service
		formatter chat.UsageFormatter
		sessions  narration.SessionManager
	)

	return opts.run(cmd, []any{&svc, &formatter, &sessions}, func(ctx context.Context) error {
		answer, err := ask(ctx, svc)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, answer.Text)
		if flags.usage {
			fmt.Fprintln(out, formatter.FormatUsage(answer.Usage, answer.Model))
		}
		if flags.speak {
			return speak(ctx, sessions, answer.Text, out)
		}

		return nil
	})
}
