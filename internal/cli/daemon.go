package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

const daemonStopTimeout = 30 * time.Second

func newDaemonCmd(rt *runtime) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run fetch (and summarize) on the configured interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			application, err := rt.open(ctx)
			if err != nil {
				return err
			}
			defer application.Close()

			sched := application.Scheduler()
			if once {
				return sched.RunOnce(ctx, time.Now())
			}

			if err := sched.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()

			stopCtx, cancel := context.WithTimeout(context.Background(), daemonStopTimeout)
			defer cancel()
			return sched.Stop(stopCtx)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")
	return cmd
}
