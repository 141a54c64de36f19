package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"SmartFeeds/internal/usecase"
)

func newFetchCmd(rt *runtime) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Collect relevant items from all sources into the daily record",
		Long: `Runs the fetch phase: every configured source is fetched, each candidate is
classified against the interest profile and accepted items are appended to the
day's record. Exits 0 when all sources succeed, 2 when some failed and 1 when
all failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.runFetch(cmd, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the phase result as JSON")
	return cmd
}

func newRunCmd(rt *runtime) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:        "run",
		Short:      "Alias for fetch",
		Deprecated: "use 'fetch' instead",
		Args:       cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.runFetch(cmd, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the phase result as JSON")
	return cmd
}

func (rt *runtime) runFetch(cmd *cobra.Command, asJSON bool) error {
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

	result, err := application.Fetch(ctx, day)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printFetch(out, result)
	}

	switch result.Outcome() {
	case usecase.OutcomePartial:
		return &exitError{code: ExitPartial, err: fmt.Errorf("%d of %d sources failed", result.Failed, len(result.Sources))}
	case usecase.OutcomeFailure:
		return &exitError{code: ExitFailure, err: fmt.Errorf("all %d sources failed", result.Failed)}
	}
	return nil
}

func printFetch(out io.Writer, result usecase.FetchResult) {
	fmt.Fprintf(out, "Fetch %s (run %s): %s\n", result.Day, result.RunID, result.Outcome())

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tSTATE\tFETCHED\tACCEPTED\tWRITTEN\tSKIPPED\tERROR")
	for _, src := range result.Sources {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			src.SourceID, src.State, src.Fetched, src.Accepted, src.Written, src.Skipped, src.Error)
	}
	_ = tw.Flush()

	fmt.Fprintf(out, "Written: %d, failed sources: %d\n", result.Written, result.Failed)
}
