package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"docshed/internal/bundle"
	"docshed/internal/config"
	"docshed/internal/docstore"
	"docshed/internal/ledger"
)

func newSealCommand(ctx *commandContext) *cobra.Command {
	var sourcePrefix string
	var before string
	var after string
	var limit int

	cmd := &cobra.Command{
		Use:   "seal",
		Short: "Seal ready documents into a bundle archive",
		Long: `Seal gathers ready documents into a compressed, reproducible bundle
archive and marks them archived. If a concurrent review changes a
selected document before the bundle commits, the seal aborts and no
document is archived; re-run it once reviews are done.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			selector := bundle.Selector{SourcePrefix: sourcePrefix, Limit: limit}
			if selector.ImportedBefore, err = parseTimeFlag(before); err != nil {
				return fmt.Errorf("--before: %w", err)
			}
			if selector.ImportedAfter, err = parseTimeFlag(after); err != nil {
				return fmt.Errorf("--after: %w", err)
			}

			return ctx.withStores(func(cfg *config.Config, store *ledger.Store, docs *docstore.Store) error {
				sealer, err := bundle.NewSealer(store, docs, cfg.BundlesDir(), cfg.Bundle.Compression, logger)
				if err != nil {
					return err
				}
				sealed, err := sealer.Seal(cmd.Context(), selector)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Bundle:          %s\n", sealed.ID)
				fmt.Fprintf(out, "Documents:       %d\n", sealed.MemberCount)
				fmt.Fprintf(out, "Compression:     %s\n", sealed.Compression)
				fmt.Fprintf(out, "Manifest digest: %s\n", sealed.ManifestDigest)
				fmt.Fprintf(out, "Archive:         %s\n", sealed.Path)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sourcePrefix, "source-prefix", "", "Only seal documents whose source reference starts with this prefix")
	cmd.Flags().StringVar(&before, "before", "", "Only seal documents imported before this RFC 3339 timestamp")
	cmd.Flags().StringVar(&after, "after", "", "Only seal documents imported after this RFC 3339 timestamp")
	cmd.Flags().IntVar(&limit, "limit", 0, "Seal at most this many documents (0 means all)")
	return cmd
}

func parseTimeFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}
