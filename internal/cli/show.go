package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCmd(rt *runtime) *cobra.Command {
	var digest bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the daily record or the saved digest",
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

			out := cmd.OutOrStdout()
			if digest {
				saved, err := application.Digests().Load(ctx, day)
				if err != nil {
					return fmt.Errorf("digest %s: %w", day, err)
				}
				fmt.Fprint(out, saved.Body)
				return nil
			}

			record, err := application.Records().Read(ctx, day)
			if err != nil {
				return err
			}
			if record.Len() == 0 {
				fmt.Fprintf(out, "No items recorded for %s\n", day)
				return nil
			}
			for i, item := range record.Items {
				fmt.Fprintf(out, "%d. %s\n   %s\n   [%s] %s\n", i+1, item.Title, item.URL, item.SourceID, item.RelevanceNote)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&digest, "digest", false, "show the digest instead of the record")
	return cmd
}
