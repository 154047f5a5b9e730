package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docshed/internal/ledger"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the shed directory and ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				return err
			}
			if err := store.Close(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Shed initialized at %s\n", cfg.Paths.ShedDir)
			fmt.Fprintf(out, "Ledger: %s\n", cfg.LedgerPath())
			return nil
		},
	}
}
