package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"docshed/internal/api"
	"docshed/internal/config"
	"docshed/internal/docstore"
	"docshed/internal/httpd"
	"docshed/internal/ledger"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStores(func(cfg *config.Config, store *ledger.Store, docs *docstore.Store) error {
				address := cfg.Paths.APIBind
				if bind != "" {
					address = bind
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				server := httpd.NewServer(api.NewService(store, docs), address, logger)
				return server.ListenAndServe(runCtx)
			})
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override the configured bind address")
	return cmd
}
