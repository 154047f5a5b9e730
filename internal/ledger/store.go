package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the authoritative ledger backed by SQLite. All document
// status mutations go through it; readers observe only committed rows.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database at path and
// verifies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the ledger database path.
func (s *Store) Path() string {
	return s.path
}

// Insert appends a new document record. The primary-key constraint
// makes the operation race-free: when the id already exists the insert
// is a no-op and Insert reports false, which importers count as a
// duplicate rather than an error.
func (s *Store) Insert(ctx context.Context, doc *Document) (bool, error) {
	if doc == nil {
		return false, errors.New("document is nil")
	}
	if doc.Status == "" {
		return false, errors.New("document status is empty")
	}
	if doc.ImportedAt.IsZero() {
		doc.ImportedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO documents (
            id, status, source_ref, length_bytes, detected_language,
            language_confidence, discard_reason, imported_at, reviewed_at, archived_in
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO NOTHING`,
		doc.ID,
		doc.Status,
		doc.SourceRef,
		doc.LengthBytes,
		nullableString(doc.DetectedLanguage),
		doc.LanguageConfidence,
		nullableString(doc.DiscardReason),
		doc.ImportedAt.Format(time.RFC3339Nano),
		nullableTime(doc.ReviewedAt),
		nullableString(doc.ArchivedIn),
	)
	if err != nil {
		return false, fmt.Errorf("insert document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Get fetches a document by content identifier.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Exists reports whether a document id is present in the ledger.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check document: %w", err)
	}
	return true, nil
}

// List returns documents matching the filter, ordered by import time
// then id for a stable presentation order.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	where, args := filterClauses(filter)
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY imported_at, id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// IDs returns the ids of documents matching the filter in canonical
// (sorted) order. The archiver snapshots bundle membership with this.
func (s *Store) IDs(ctx context.Context, filter Filter) ([]string, error) {
	query := `SELECT id FROM documents`
	where, args := filterClauses(filter)
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list document ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Promote transitions a pending document to ready.
func (s *Store) Promote(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE documents SET status = ?, reviewed_at = ? WHERE id = ? AND status = ?`,
		StatusReady, now, id, StatusPending,
	)
	if err != nil {
		return fmt.Errorf("promote document: %w", err)
	}
	return s.checkTransitionResult(ctx, res, id, StatusReady)
}

// Discard transitions a pending or ready document to discarded,
// recording the reason. Discarded rows remain visible for audit.
func (s *Store) Discard(ctx context.Context, id, reason string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE documents SET status = ?, discard_reason = ?, reviewed_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusDiscarded, nullableString(reason), now, id, StatusPending, StatusReady,
	)
	if err != nil {
		return fmt.Errorf("discard document: %w", err)
	}
	return s.checkTransitionResult(ctx, res, id, StatusDiscarded)
}

// Reinstate returns a discarded document to pending, clearing the
// discard reason. Archived documents never match the guard because
// archived is terminal.
func (s *Store) Reinstate(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE documents SET status = ?, discard_reason = NULL, reviewed_at = ?
         WHERE id = ? AND status = ?`,
		StatusPending, now, id, StatusDiscarded,
	)
	if err != nil {
		return fmt.Errorf("reinstate document: %w", err)
	}
	return s.checkTransitionResult(ctx, res, id, StatusPending)
}

// checkTransitionResult turns a zero-row compare-and-set update into
// the precise error: unknown id or illegal transition from the current
// status.
func (s *Store) checkTransitionResult(ctx context.Context, res sql.Result, id string, to Status) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s -> %s (document %s)", ErrInvalidTransition, doc.Status, to, shortID(id))
}

// Summary aggregates document counts per status.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM documents GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("ledger summary: %w", err)
	}
	defer rows.Close()

	summary := Summary{}
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		switch status {
		case StatusPending:
			summary.Pending += count
		case StatusReady:
			summary.Ready += count
		case StatusDiscarded:
			summary.Discarded += count
		case StatusArchived:
			summary.Archived += count
		}
	}
	return summary, rows.Err()
}

func filterClauses(filter Filter) ([]string, []any) {
	var where []string
	var args []any
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		where = append(where, `status IN (`+strings.Join(placeholders, ",")+`)`)
	}
	if filter.SourcePrefix != "" {
		where = append(where, `source_ref LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(filter.SourcePrefix)+"%")
	}
	if !filter.ImportedAfter.IsZero() {
		where = append(where, `imported_at >= ?`)
		args = append(args, filter.ImportedAfter.UTC().Format(time.RFC3339Nano))
	}
	if !filter.ImportedBefore.IsZero() {
		where = append(where, `imported_at < ?`)
		args = append(args, filter.ImportedBefore.UTC().Format(time.RFC3339Nano))
	}
	return where, args
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

const documentColumns = "id, status, source_ref, length_bytes, detected_language, language_confidence, discard_reason, imported_at, reviewed_at, archived_in"

func scanDocument(scanner interface{ Scan(dest ...any) error }) (*Document, error) {
	var (
		id          string
		statusStr   string
		sourceRef   string
		lengthBytes int64
		language    sql.NullString
		confidence  sql.NullFloat64
		reason      sql.NullString
		importedRaw string
		reviewedRaw sql.NullString
		archivedIn  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&sourceRef,
		&lengthBytes,
		&language,
		&confidence,
		&reason,
		&importedRaw,
		&reviewedRaw,
		&archivedIn,
	); err != nil {
		return nil, err
	}

	doc := &Document{
		ID:                 id,
		Status:             Status(statusStr),
		SourceRef:          sourceRef,
		LengthBytes:        lengthBytes,
		DetectedLanguage:   language.String,
		LanguageConfidence: confidence.Float64,
		DiscardReason:      reason.String,
		ArchivedIn:         archivedIn.String,
	}
	if imported, err := parseTimeString(importedRaw); err == nil {
		doc.ImportedAt = imported
	}
	if reviewedRaw.Valid {
		if reviewed, err := parseTimeString(reviewedRaw.String); err == nil {
			doc.ReviewedAt = &reviewed
		}
	}
	return doc, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
