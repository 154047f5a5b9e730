package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docshed/internal/bundle"
	"docshed/internal/config"
	"docshed/internal/docstore"
	"docshed/internal/ledger"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check stored documents and bundles against their digests",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStores(func(cfg *config.Config, store *ledger.Store, docs *docstore.Store) error {
				out := cmd.OutOrStdout()
				failures := 0

				ids, err := store.IDs(cmd.Context(), ledger.Filter{})
				if err != nil {
					return err
				}
				for _, id := range ids {
					if err := docs.Verify(id); err != nil {
						failures++
						fmt.Fprintf(out, "document %s: %v\n", id, err)
					}
				}
				fmt.Fprintf(out, "Documents checked: %d\n", len(ids))

				sealer, err := bundle.NewSealer(store, docs, cfg.BundlesDir(), cfg.Bundle.Compression, logger)
				if err != nil {
					return err
				}
				bundleFailures, err := sealer.VerifyAll(cmd.Context())
				if err != nil {
					return err
				}
				for id, verifyErr := range bundleFailures {
					failures++
					fmt.Fprintf(out, "bundle %s: %v\n", id, verifyErr)
				}
				bundles, err := store.ListBundles(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Bundles checked:   %d\n", len(bundles))

				if failures > 0 {
					return fmt.Errorf("%d integrity failures", failures)
				}
				fmt.Fprintln(out, "All checks passed")
				return nil
			})
		},
	}
}
