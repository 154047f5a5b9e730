package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docshed/internal/bundle"
	"docshed/internal/config"
	"docshed/internal/docstore"
	"docshed/internal/ledger"
)

func newRestoreCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <bundle-id> <dir>",
		Short: "Extract a bundle's documents into a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := args[1]
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStores(func(cfg *config.Config, store *ledger.Store, docs *docstore.Store) error {
				sealer, err := bundle.NewSealer(store, docs, cfg.BundlesDir(), cfg.Bundle.Compression, logger)
				if err != nil {
					return err
				}
				count, err := sealer.Restore(cmd.Context(), args[0], dest)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %d documents to %s\n", count, dest)
				return nil
			})
		},
	}
	return cmd
}
