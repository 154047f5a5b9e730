package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"docshed/internal/api"
	"docshed/internal/config"
	"docshed/internal/docstore"
	"docshed/internal/ledger"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show document counts and bundle totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, store *ledger.Store, docs *docstore.Store) error {
				service := api.NewService(store, docs)
				summary, err := service.Summary(cmd.Context())
				if err != nil {
					return err
				}
				bundles, err := service.Bundles(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					encoder := json.NewEncoder(out)
					encoder.SetIndent("", "  ")
					return encoder.Encode(map[string]any{
						"documents": summary,
						"bundles":   len(bundles),
					})
				}

				rows := [][]string{
					{"pending", strconv.Itoa(summary.Pending)},
					{"ready", strconv.Itoa(summary.Ready)},
					{"discarded", strconv.Itoa(summary.Discarded)},
					{"archived", strconv.Itoa(summary.Archived)},
					{"total", strconv.Itoa(summary.Total)},
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Status", "Documents"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				fmt.Fprintf(out, "Bundles: %d\n", len(bundles))
				fmt.Fprintf(out, "Shed:    %s\n", cfg.Paths.ShedDir)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}
