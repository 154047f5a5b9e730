package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docshed/internal/config"
	"docshed/internal/docstore"
	"docshed/internal/importer"
	"docshed/internal/ledger"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var workers int
	var noPromote bool

	cmd := &cobra.Command{
		Use:   "import <dir>...",
		Short: "Import text documents from one or more directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStores(func(cfg *config.Config, store *ledger.Store, docs *docstore.Store) error {
				v, err := ctx.newValidator(cfg)
				if err != nil {
					return err
				}

				sources := make([]*importer.DirSource, 0, len(args))
				total := 0
				for _, dir := range args {
					source, err := importer.NewDirSource(dir)
					if err != nil {
						return err
					}
					sources = append(sources, source)
					total += source.Len()
				}
				if total == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No .txt files found")
					return nil
				}

				opts := importer.Options{
					Workers:     cfg.Import.Workers,
					AutoPromote: cfg.Import.AutoPromote,
				}
				if workers > 0 {
					opts.Workers = workers
				}
				if noPromote {
					opts.AutoPromote = false
				}

				var bar *progressbar.ProgressBar
				if isatty.IsTerminal(os.Stderr.Fd()) {
					bar = progressbar.Default(int64(total), "importing")
					opts.Progress = func() { _ = bar.Add(1) }
				}

				pipeline := importer.NewPipeline(store, docs, v, opts, logger)
				var summary importer.Summary
				for _, source := range sources {
					runSummary, err := pipeline.Run(cmd.Context(), source)
					summary = addSummaries(summary, runSummary)
					if err != nil {
						if bar != nil {
							_ = bar.Finish()
						}
						return err
					}
				}
				if bar != nil {
					_ = bar.Finish()
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Seen:            %d\n", summary.Seen)
				fmt.Fprintf(out, "Imported:        %d\n", summary.Imported)
				fmt.Fprintf(out, "Promoted:        %d\n", summary.Promoted)
				fmt.Fprintf(out, "Discarded:       %d\n", summary.Discarded)
				fmt.Fprintf(out, "Duplicates:      %d\n", summary.Duplicates)
				fmt.Fprintf(out, "Encoding errors: %d\n", summary.EncodingErrors)
				if summary.Failed > 0 {
					fmt.Fprintf(out, "Failed:          %d\n", summary.Failed)
					return fmt.Errorf("%d candidates failed; see logs", summary.Failed)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Override the configured worker count")
	cmd.Flags().BoolVar(&noPromote, "no-promote", false, "Leave imported documents pending instead of auto-promoting")
	return cmd
}

func addSummaries(a, b importer.Summary) importer.Summary {
	return importer.Summary{
		Seen:           a.Seen + b.Seen,
		Imported:       a.Imported + b.Imported,
		Promoted:       a.Promoted + b.Promoted,
		Discarded:      a.Discarded + b.Discarded,
		Duplicates:     a.Duplicates + b.Duplicates,
		EncodingErrors: a.EncodingErrors + b.EncodingErrors,
		Failed:         a.Failed + b.Failed,
	}
}
