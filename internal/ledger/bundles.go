package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CommitBundle records a sealed bundle and transitions every member
// from ready to archived in a single transaction. If any member is no
// longer ready the whole commit rolls back and the ledger is unchanged;
// the caller is expected to have already written the bundle artifact
// via temp-then-rename, so an aborted commit leaves only an unreferenced
// file to clean up.
func (s *Store) CommitBundle(ctx context.Context, bundle *Bundle) error {
	if bundle == nil {
		return errors.New("bundle is nil")
	}
	if bundle.CreatedAt.IsZero() {
		bundle.CreatedAt = time.Now().UTC()
	}
	bundle.MemberCount = len(bundle.Members)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bundle tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO bundles (id, created_at, manifest_digest, compression, path, member_count)
         VALUES (?, ?, ?, ?, ?, ?)`,
		bundle.ID,
		bundle.CreatedAt.UTC().Format(time.RFC3339Nano),
		bundle.ManifestDigest,
		bundle.Compression,
		bundle.Path,
		bundle.MemberCount,
	); err != nil {
		return fmt.Errorf("insert bundle: %w", err)
	}

	for position, member := range bundle.Members {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO bundle_members (bundle_id, position, document_id, size_bytes, digest)
             VALUES (?, ?, ?, ?, ?)`,
			bundle.ID, position, member.DocumentID, member.SizeBytes, member.Digest,
		); err != nil {
			return fmt.Errorf("insert bundle member: %w", err)
		}

		res, err := tx.ExecContext(
			ctx,
			`UPDATE documents SET status = ?, archived_in = ? WHERE id = ? AND status = ?`,
			StatusArchived, bundle.ID, member.DocumentID, StatusReady,
		)
		if err != nil {
			return fmt.Errorf("archive document %s: %w", shortID(member.DocumentID), err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected != 1 {
			return fmt.Errorf("%w: document %s is no longer ready", ErrInvalidTransition, shortID(member.DocumentID))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bundle: %w", err)
	}
	return nil
}

// GetBundle fetches a bundle record with its member list.
func (s *Store) GetBundle(ctx context.Context, id string) (*Bundle, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, created_at, manifest_digest, compression, path, member_count
         FROM bundles WHERE id = ?`,
		id,
	)
	bundle, err := scanBundle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBundleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bundle: %w", err)
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT document_id, size_bytes, digest FROM bundle_members
         WHERE bundle_id = ? ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("get bundle members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var member BundleMember
		if err := rows.Scan(&member.DocumentID, &member.SizeBytes, &member.Digest); err != nil {
			return nil, err
		}
		bundle.Members = append(bundle.Members, member)
	}
	return bundle, rows.Err()
}

// ListBundles returns all bundle records ordered by creation time.
// Member lists are not populated; use GetBundle for the manifest.
func (s *Store) ListBundles(ctx context.Context) ([]*Bundle, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, created_at, manifest_digest, compression, path, member_count
         FROM bundles ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	defer rows.Close()

	var bundles []*Bundle
	for rows.Next() {
		bundle, err := scanBundle(rows)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, bundle)
	}
	return bundles, rows.Err()
}

func scanBundle(scanner interface{ Scan(dest ...any) error }) (*Bundle, error) {
	var (
		bundle     Bundle
		createdRaw string
	)
	if err := scanner.Scan(
		&bundle.ID,
		&createdRaw,
		&bundle.ManifestDigest,
		&bundle.Compression,
		&bundle.Path,
		&bundle.MemberCount,
	); err != nil {
		return nil, err
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		bundle.CreatedAt = created
	}
	return &bundle, nil
}
