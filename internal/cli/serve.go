package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackwright/pkg/api"
)

// serveCommand runs the HTTP API until the context is cancelled.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the part editing API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			r, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			cfg := r.Settings.Server
			if addr != "" {
				cfg.Addr = addr
			}
			logger.Info("Serving", "addr", cfg.Addr, "parts", len(r.PartNames()), "store", r.Settings.Store.Backend)
			return api.NewServer(r, cfg, logger).ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from settings)")
	return cmd
}
