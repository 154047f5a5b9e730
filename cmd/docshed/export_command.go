package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docshed/internal/config"
	"docshed/internal/docstore"
	"docshed/internal/ledger"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the document ledger as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, store *ledger.Store, docs *docstore.Store) error {
				if output == "" {
					return store.ExportCSV(cmd.Context(), cmd.OutOrStdout())
				}
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				if err := store.ExportCSV(cmd.Context(), file); err != nil {
					file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported ledger to %s\n", output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write CSV to a file instead of stdout")
	return cmd
}
