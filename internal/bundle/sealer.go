package bundle

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"docshed/internal/contentid"
	"docshed/internal/docstore"
	"docshed/internal/ledger"
	"docshed/internal/logging"
)

var (
	// ErrSealInProgress means another seal holds the bundle lock.
	ErrSealInProgress = errors.New("another seal is in progress")
	// ErrNothingToSeal means no ready document matched the selector.
	ErrNothingToSeal = errors.New("no ready documents to seal")
	// ErrIntegrity means stored content does not match its recorded
	// digest.
	ErrIntegrity = errors.New("bundle integrity violation")
)

// manifestName is the first entry of every bundle archive.
const manifestName = "manifest.tsv"

// Selector narrows which ready documents a seal picks up. Zero values
// mean "no constraint".
type Selector struct {
	SourcePrefix   string
	ImportedBefore time.Time
	ImportedAfter  time.Time
	Limit          int
}

// Sealer turns sets of ready documents into compressed bundle
// archives and records them in the ledger. Only one seal runs at a
// time per bundle directory, enforced with a file lock so separate
// processes are covered too.
type Sealer struct {
	store       *ledger.Store
	docs        *docstore.Store
	dir         string
	compression codec
	logger      *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewSealer wires a sealer writing bundles into dir. A nil logger
// discards output.
func NewSealer(store *ledger.Store, docs *docstore.Store, dir, compression string, logger *slog.Logger) (*Sealer, error) {
	c, err := codecFor(compression)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating bundle directory: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Sealer{
		store:       store,
		docs:        docs,
		dir:         dir,
		compression: c,
		logger:      logger,
		inflight:    make(map[string]struct{}),
	}, nil
}

// InFlight reports whether id belongs to a seal that has started but
// not yet committed. Review workflows refuse to touch such documents.
func (s *Sealer) InFlight(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[id]
	return ok
}

// Seal gathers the ready documents matching the selector into one
// archive and commits the bundle. The archive is written to a
// temporary file and renamed into place before the ledger transaction
// runs, so a failed commit leaves at most an unreferenced file and
// never a bundle row without its archive.
func (s *Sealer) Seal(ctx context.Context, selector Selector) (*ledger.Bundle, error) {
	lock := flock.New(filepath.Join(s.dir, ".seal.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire seal lock: %w", err)
	}
	if !ok {
		return nil, ErrSealInProgress
	}
	defer func() { _ = lock.Unlock() }()

	ids, err := s.store.IDs(ctx, ledger.Filter{
		Statuses:       []ledger.Status{ledger.StatusReady},
		SourcePrefix:   selector.SourcePrefix,
		ImportedBefore: selector.ImportedBefore,
		ImportedAfter:  selector.ImportedAfter,
		Limit:          selector.Limit,
	})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNothingToSeal
	}

	s.markInFlight(ids)
	defer s.clearInFlight(ids)

	members := make([]ledger.BundleMember, 0, len(ids))
	manifest := contentid.NewManifestDigest()
	for _, id := range ids {
		content, err := s.docs.Read(id)
		if err != nil {
			return nil, err
		}
		digest := contentid.DigestCanonical(string(content))
		if digest != id {
			return nil, fmt.Errorf("%w: document %s content hashes to %s", ErrIntegrity, shortID(id), shortID(digest))
		}
		members = append(members, ledger.BundleMember{
			DocumentID: id,
			SizeBytes:  int64(len(content)),
			Digest:     digest,
		})
		manifest.Add(id, int64(len(content)), digest)
	}

	bundleID := uuid.NewString()
	path := filepath.Join(s.dir, bundleID+s.compression.ext)
	if err := s.writeArchive(path, members); err != nil {
		return nil, err
	}

	bundle := &ledger.Bundle{
		ID:             bundleID,
		CreatedAt:      time.Now().UTC(),
		ManifestDigest: manifest.Sum(),
		Compression:    s.compression.name,
		Path:           path,
		MemberCount:    len(members),
		Members:        members,
	}
	if err := s.store.CommitBundle(ctx, bundle); err != nil {
		// The archive is not referenced by anything yet.
		_ = os.Remove(path)
		return nil, err
	}

	s.logger.Info("bundle sealed",
		"bundle", bundleID,
		"documents", len(members),
		"compression", s.compression.name,
		"manifest_digest", bundle.ManifestDigest)
	return bundle, nil
}

// writeArchive builds the archive at path via a temporary file in the
// same directory. Entry order and metadata are fixed, so bundles with
// identical membership are byte-identical.
func (s *Sealer) writeArchive(path string, members []ledger.BundleMember) (err error) {
	tmp, err := os.CreateTemp(s.dir, ".tmp-bundle-")
	if err != nil {
		return fmt.Errorf("creating temp bundle: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	compressor, err := s.compression.wrapWriter(tmp)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(compressor)

	if err = s.writeEntry(tw, manifestName, manifestBytes(members)); err != nil {
		return err
	}
	for _, member := range members {
		content, readErr := s.docs.Read(member.DocumentID)
		if readErr != nil {
			err = readErr
			return err
		}
		if err = s.writeEntry(tw, "documents/"+member.DocumentID+".txt", content); err != nil {
			return err
		}
	}

	if err = tw.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}
	if err = compressor.Close(); err != nil {
		return fmt.Errorf("closing compressor: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing bundle: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing bundle: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("committing bundle file: %w", err)
	}
	return nil
}

func (s *Sealer) writeEntry(tw *tar.Writer, name string, content []byte) error {
	header := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(content)),
		ModTime: time.Unix(0, 0).UTC(),
		Format:  tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("writing %s header: %w", name, err)
	}
	if _, err := tw.Write(content); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (s *Sealer) markInFlight(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.inflight[id] = struct{}{}
	}
}

func (s *Sealer) clearInFlight(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.inflight, id)
	}
}

// manifestBytes renders the manifest entry. Its bytes are exactly the
// input of the manifest digest.
func manifestBytes(members []ledger.BundleMember) []byte {
	var out []byte
	for _, member := range members {
		out = fmt.Appendf(out, "%s\t%d\t%s\n", member.DocumentID, member.SizeBytes, member.Digest)
	}
	return out
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
