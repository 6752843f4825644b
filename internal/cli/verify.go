package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kisandost/kisandost-go/internal/narration"
	"github.com/kisandost/kisandost-go/internal/verification"
)

func newVerifyCommand(opts *rootOptions) *cobra.Command {
	var speakResult bool

	cmd := &cobra.Command{
		Use:   "verify <image>",
		Short: "Check a photo of fertilizer or seed packaging for signs of counterfeiting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			var (
				verifier *verification.Verifier
				sessions narration.SessionManager
			)

			return opts.run(cmd, []any{&verifier, &sessions}, func(ctx context.Context) error {
				result, err := verifier.ClassifyImage(ctx, image)
				if err != nil {
					return fmt.Errorf("could not verify product, try a clearer image: %w", err)
				}

				if err := printResult(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				if speakResult {
					return speak(ctx, sessions, result.Explanation(), cmd.OutOrStdout())
				}

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&speakResult, "speak", false, "read the verdict aloud")

	return cmd
}

func printResult(out io.Writer, r *verification.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	verdict := "VERIFIED"
	if !r.Genuine() {
		verdict = "NOT VERIFIED"
	}
	fmt.Fprintf(w, "Verdict:\t%s\n", verdict)
	fmt.Fprintf(w, "Product:\t%s\n", r.ProductName)
	fmt.Fprintf(w, "Brand:\t%s\n", r.Brand)
	for _, row := range []struct{ label, value string }{
		{"Batch:", r.BatchNumber},
		{"Expiry:", r.ExpiryDate},
		{"Serial:", r.Serial},
	} {
		if row.value != "" {
			fmt.Fprintf(w, "%s\t%s\n", row.label, row.value)
		}
	}
	fmt.Fprintf(w, "Verified at:\t%s\n", r.VerificationTime.Format("15:04"))

	return w.Flush()
}
