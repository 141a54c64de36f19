package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSummarizeCmd(rt *runtime) *cobra.Command {
	var printBody bool
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Condense the daily record into a digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			application, err := rt.open(ctx)
			if err != nil {
				return err
			}
			defer application.Close()

			day, err := rt.day(application)
			if err != nil {
				return err
			}

			result, err := application.Summarize(ctx, day)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Digest %s saved from %d items\n", result.Day, result.Items)
			if result.NotifyErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: notification failed: %v\n", result.NotifyErr)
			} else if result.Notified {
				fmt.Fprintln(out, "Digest sent to Telegram")
			}
			if printBody {
				fmt.Fprintln(out)
				fmt.Fprint(out, result.Digest.Body)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&printBody, "print", "p", false, "print the digest body")
	return cmd
}
