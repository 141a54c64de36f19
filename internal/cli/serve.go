package cli

import (
	"github.com/spf13/cobra"

	"SmartFeeds/internal/app"
	"SmartFeeds/internal/infrastructure/httpapi"
)

var _ httpapi.Service = (*app.Application)(nil)

func newServeCmd(rt *runtime) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose fetch, summarize and the stored artifacts over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := rt.config()
			logger := rt.logger(cfg)

			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			if addr == "" {
				addr = cfg.Server.Addr
			}
			return httpapi.NewServer(application, logger).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr setting)")
	return cmd
}
