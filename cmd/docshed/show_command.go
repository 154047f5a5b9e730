package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"docshed/internal/api"
	"docshed/internal/config"
	"docshed/internal/docstore"
	"docshed/internal/ledger"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var withContent bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Display one document record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, store *ledger.Store, docs *docstore.Store) error {
				service := api.NewService(store, docs)
				doc, err := service.Document(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					encoder := json.NewEncoder(out)
					encoder.SetIndent("", "  ")
					if err := encoder.Encode(doc); err != nil {
						return err
					}
				} else {
					fmt.Fprintf(out, "ID:         %s\n", doc.ID)
					fmt.Fprintf(out, "Status:     %s\n", doc.Status)
					fmt.Fprintf(out, "Source:     %s\n", orDash(doc.SourceRef))
					fmt.Fprintf(out, "Length:     %d bytes\n", doc.LengthBytes)
					fmt.Fprintf(out, "Language:   %s\n", formatLanguage(doc))
					fmt.Fprintf(out, "Imported:   %s\n", doc.ImportedAt.Format(time.RFC3339))
					if doc.ReviewedAt != nil {
						fmt.Fprintf(out, "Reviewed:   %s\n", doc.ReviewedAt.Format(time.RFC3339))
					}
					if doc.DiscardReason != "" {
						fmt.Fprintf(out, "Discarded:  %s\n", doc.DiscardReason)
					}
					if doc.ArchivedIn != "" {
						fmt.Fprintf(out, "Bundle:     %s\n", doc.ArchivedIn)
					}
				}

				if withContent {
					content, err := service.DocumentContent(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					fmt.Fprintln(out)
					_, err = out.Write(content)
					return err
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	cmd.Flags().BoolVar(&withContent, "content", false, "Also print the canonical document text")
	return cmd
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func formatLanguage(doc api.DocumentView) string {
	if doc.DetectedLanguage == "" {
		return "-"
	}
	return fmt.Sprintf("%s (%.2f)", doc.DetectedLanguage, doc.LanguageConfidence)
}
