package cli

import (
	"github.com/spf13/cobra"

	"SmartFeeds/internal/infrastructure/browser"
)

func newConfigureBrowserCmd(rt *runtime) *cobra.Command {
	var startURL string
	cmd := &cobra.Command{
		Use:   "configure-browser",
		Short: "Open a visible browser on the persistent profile to log in to sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := rt.config()
			opts := browser.Options{
				UserDataDir: cfg.BrowserUserDataDir(),
				RemoteURL:   cfg.Browser.RemoteURL,
				Proxy:       cfg.Browser.Proxy,
				Logger:      rt.logger(cfg),
			}
			return browser.ConfigureSession(cmd.Context(), opts, startURL, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&startURL, "url", browser.DefaultStartURL, "page to open first")
	return cmd
}
