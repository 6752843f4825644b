package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kisandost/kisandost-go/internal/narration"
)

func newNarrateCommand(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "narrate [text...]",
		Short: "Narrate text aloud with play/pause controls",
		Long: "Synthesizes the text and plays it on the default audio device.\n\n" +
			controlsHelp + ".\nWhen stdin is not a terminal the narration plays once and the command exits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := narrationText(args, file)
			if err != nil {
				return err
			}

			var sessions narration.SessionManager

			return opts.run(cmd, []any{&sessions}, func(ctx context.Context) error {
				listener, changes := stateChannel()

				lease, err := sessions.Acquire(cliScreen, narration.WithStateListener(listener))
				if err != nil {
					return err
				}
				defer lease.Release()

				eol, restore := rawInput(cmd.InOrStdin())
				defer restore()

				n := &narrator{
					player:  lease.Session,
					changes: changes,
					in:      cmd.InOrStdin(),
					out:     cmd.OutOrStdout(),
					eol:     eol,
				}

				return n.run(ctx, text)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the text to narrate from a file")

	return cmd
}

func narrationText(args []string, file string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read narration text: %w", err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return "", narration.ErrNoText
	}

	return text, nil
}
