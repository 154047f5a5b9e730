package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docshed/internal/config"
	"docshed/internal/docstore"
	"docshed/internal/ledger"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stored objects the ledger does not know about",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, store *ledger.Store, docs *docstore.Store) error {
				orphans, err := docs.Orphans(func(id string) (bool, error) {
					return store.Exists(cmd.Context(), id)
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(orphans) == 0 {
					fmt.Fprintln(out, "No orphaned objects")
					return nil
				}
				for _, id := range orphans {
					if dryRun {
						fmt.Fprintf(out, "would remove %s\n", id)
						continue
					}
					if err := docs.Remove(id); err != nil {
						return err
					}
					fmt.Fprintf(out, "removed %s\n", id)
				}
				if dryRun {
					fmt.Fprintf(out, "%d orphaned objects (dry run)\n", len(orphans))
				} else {
					fmt.Fprintf(out, "%d orphaned objects removed\n", len(orphans))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List orphans without removing them")
	return cmd
}
