package bundle

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"docshed/internal/contentid"
	"docshed/internal/ledger"
)

// Verify re-reads a sealed bundle and checks it against the ledger:
// the manifest must match the recorded membership and digest, and
// every document's content must hash to its identifier. A bundle that
// fails an integrity check is quarantined by renaming its file with a
// .quarantined suffix so it cannot be served or restored by accident.
func (s *Sealer) Verify(ctx context.Context, bundleID string) error {
	bundle, err := s.store.GetBundle(ctx, bundleID)
	if err != nil {
		return err
	}

	integrity := s.checkArchive(bundle)
	if integrity == nil {
		return nil
	}
	if errors.Is(integrity, ErrIntegrity) {
		quarantined := bundle.Path + ".quarantined"
		if renameErr := os.Rename(bundle.Path, quarantined); renameErr != nil {
			s.logger.Error("quarantine failed", "bundle", bundle.ID, "error", renameErr)
		} else {
			s.logger.Warn("bundle quarantined", "bundle", bundle.ID, "path", quarantined)
		}
	}
	return integrity
}

// VerifyAll verifies every recorded bundle and returns the ids that
// failed alongside the first error for each.
func (s *Sealer) VerifyAll(ctx context.Context) (map[string]error, error) {
	bundles, err := s.store.ListBundles(ctx)
	if err != nil {
		return nil, err
	}
	failures := make(map[string]error)
	for _, bundle := range bundles {
		if err := s.Verify(ctx, bundle.ID); err != nil {
			failures[bundle.ID] = err
		}
	}
	return failures, nil
}

func (s *Sealer) checkArchive(bundle *ledger.Bundle) error {
	file, err := os.Open(bundle.Path)
	if err != nil {
		return fmt.Errorf("opening bundle archive: %w", err)
	}
	defer file.Close()

	c, err := codecFor(bundle.Compression)
	if err != nil {
		return err
	}
	reader, err := c.wrapReader(file)
	if err != nil {
		return fmt.Errorf("%w: bundle %s: %v", ErrIntegrity, bundle.ID, err)
	}
	defer reader.Close()

	tr := tar.NewReader(reader)

	header, err := tr.Next()
	if err != nil {
		return fmt.Errorf("%w: bundle %s has no manifest: %v", ErrIntegrity, bundle.ID, err)
	}
	if header.Name != manifestName {
		return fmt.Errorf("%w: bundle %s first entry is %q", ErrIntegrity, bundle.ID, header.Name)
	}
	manifest, err := io.ReadAll(tr)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	if !bytes.Equal(manifest, manifestBytes(bundle.Members)) {
		return fmt.Errorf("%w: bundle %s manifest does not match ledger", ErrIntegrity, bundle.ID)
	}

	digest := contentid.NewManifestDigest()
	for _, member := range bundle.Members {
		digest.Add(member.DocumentID, member.SizeBytes, member.Digest)
	}
	if sum := digest.Sum(); sum != bundle.ManifestDigest {
		return fmt.Errorf("%w: bundle %s manifest digest mismatch", ErrIntegrity, bundle.ID)
	}

	for _, member := range bundle.Members {
		header, err := tr.Next()
		if err != nil {
			return fmt.Errorf("%w: bundle %s truncated before %s: %v", ErrIntegrity, bundle.ID, shortID(member.DocumentID), err)
		}
		if header.Name != "documents/"+member.DocumentID+".txt" {
			return fmt.Errorf("%w: bundle %s unexpected entry %q", ErrIntegrity, bundle.ID, header.Name)
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return fmt.Errorf("reading %s: %w", header.Name, err)
		}
		if contentid.DigestCanonical(string(content)) != member.DocumentID {
			return fmt.Errorf("%w: bundle %s document %s content mismatch", ErrIntegrity, bundle.ID, shortID(member.DocumentID))
		}
	}
	if _, err := tr.Next(); err != io.EOF {
		return fmt.Errorf("%w: bundle %s has trailing entries", ErrIntegrity, bundle.ID)
	}
	return nil
}

// Restore extracts a bundle's documents into dir, one <id>.txt per
// document, checking each against its digest on the way out. The
// ledger is not touched: restored copies are working files, the
// archived rows stay archived.
func (s *Sealer) Restore(ctx context.Context, bundleID, dir string) (int, error) {
	bundle, err := s.store.GetBundle(ctx, bundleID)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating restore directory: %w", err)
	}

	file, err := os.Open(bundle.Path)
	if err != nil {
		return 0, fmt.Errorf("opening bundle archive: %w", err)
	}
	defer file.Close()

	c, err := codecFor(bundle.Compression)
	if err != nil {
		return 0, err
	}
	reader, err := c.wrapReader(file)
	if err != nil {
		return 0, fmt.Errorf("decompressing bundle: %w", err)
	}
	defer reader.Close()

	tr := tar.NewReader(reader)
	restored := 0
	for {
		if err := ctx.Err(); err != nil {
			return restored, err
		}
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return restored, fmt.Errorf("reading bundle archive: %w", err)
		}
		if header.Name == manifestName {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(header.Name, "documents/"), ".txt")
		if !contentid.Valid(id) {
			return restored, fmt.Errorf("%w: bundle %s unexpected entry %q", ErrIntegrity, bundle.ID, header.Name)
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return restored, fmt.Errorf("reading %s: %w", header.Name, err)
		}
		if contentid.DigestCanonical(string(content)) != id {
			return restored, fmt.Errorf("%w: bundle %s document %s content mismatch", ErrIntegrity, bundle.ID, shortID(id))
		}
		if err := os.WriteFile(filepath.Join(dir, id+".txt"), content, 0o644); err != nil {
			return restored, fmt.Errorf("writing restored document: %w", err)
		}
		restored++
	}

	s.logger.Info("bundle restored", "bundle", bundle.ID, "documents", restored, "dir", dir)
	return restored, nil
}
