package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ExportCSV writes the full document ledger as a row-oriented CSV dump
// for human audit. Rows come out in import order; discarded documents
// are included.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer) error {
	docs, err := s.List(ctx, Filter{})
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	header := []string{
		"id", "status", "source_ref", "length_bytes", "detected_language",
		"language_confidence", "discard_reason", "imported_at", "reviewed_at", "archived_in",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, doc := range docs {
		reviewed := ""
		if doc.ReviewedAt != nil {
			reviewed = doc.ReviewedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			doc.ID,
			string(doc.Status),
			doc.SourceRef,
			strconv.FormatInt(doc.LengthBytes, 10),
			doc.DetectedLanguage,
			strconv.FormatFloat(doc.LanguageConfidence, 'f', 4, 64),
			doc.DiscardReason,
			doc.ImportedAt.UTC().Format(time.RFC3339),
			reviewed,
			doc.ArchivedIn,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
