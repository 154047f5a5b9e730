package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docshed/internal/config"
	"docshed/internal/docstore"
	"docshed/internal/ledger"
	"docshed/internal/review"
)

func newPromoteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "promote <id>...",
		Short: "Mark pending documents ready for archival",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runReview(cmd, func(workflow *review.Workflow) ([]review.BatchResult, review.Summary) {
				return workflow.PromoteAll(cmd.Context(), args)
			})
		},
	}
}

func newDiscardCommand(ctx *commandContext) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "discard <id>...",
		Short: "Reject pending or ready documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runReview(cmd, func(workflow *review.Workflow) ([]review.BatchResult, review.Summary) {
				return workflow.DiscardAll(cmd.Context(), args, reason)
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "manual review", "Reason recorded with the discard")
	return cmd
}

func newReinstateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reinstate <id>...",
		Short: "Return discarded documents to pending",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runReview(cmd, func(workflow *review.Workflow) ([]review.BatchResult, review.Summary) {
				return workflow.ReinstateAll(cmd.Context(), args)
			})
		},
	}
}

func (c *commandContext) runReview(cmd *cobra.Command, apply func(*review.Workflow) ([]review.BatchResult, review.Summary)) error {
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	return c.withStores(func(cfg *config.Config, store *ledger.Store, docs *docstore.Store) error {
		workflow := review.NewWorkflow(store, nil, logger)
		results, summary := apply(workflow)

		out := cmd.OutOrStdout()
		for _, result := range results {
			if result.Err != nil {
				fmt.Fprintf(out, "%s  FAILED: %v\n", result.ID, result.Err)
			} else {
				fmt.Fprintf(out, "%s  ok\n", result.ID)
			}
		}
		fmt.Fprintf(out, "Applied %d, failed %d\n", summary.Applied, summary.Failed)
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d documents failed", summary.Failed, len(results))
		}
		return nil
	})
}
