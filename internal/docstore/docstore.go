package docstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docshed/internal/contentid"
)

// ErrUnknownID indicates the requested id has no object in the store.
var ErrUnknownID = errors.New("no stored content for id")

// Store is the content-addressed file tree holding canonical document
// bytes. Objects live at objects/<id[0:2]>/<id[2:4]>/<id>.txt so no
// directory grows unbounded. The store owns bytes only; status lives
// in the ledger.
type Store struct {
	root string
}

// New returns a store rooted at dir, creating it when missing.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create object store root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the object path for a content identifier.
func (s *Store) Path(id string) (string, error) {
	if !contentid.Valid(id) {
		return "", fmt.Errorf("malformed content identifier %q", id)
	}
	return filepath.Join(s.root, id[0:2], id[2:4], id+".txt"), nil
}

// Exists reports whether content for id is present.
func (s *Store) Exists(id string) (bool, error) {
	path, err := s.Path(id)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat object: %w", err)
	}
	return true, nil
}

// Write persists canonical bytes under id. The write is idempotent:
// if the object already exists it is left alone, because identical id
// implies identical bytes. New objects are written to a temp file in
// the target directory and renamed into place, so readers never see a
// partial object. Returns whether a new object was written.
func (s *Store) Write(id string, canonical []byte) (bool, error) {
	path, err := s.Path(id)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat object: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create shard directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+id[:8]+"-*")
	if err != nil {
		return false, fmt.Errorf("create temp object: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(canonical); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return false, fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return false, fmt.Errorf("sync object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return false, fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return false, fmt.Errorf("commit object: %w", err)
	}
	return true, nil
}

// Read returns the canonical bytes stored under id.
func (s *Store) Read(id string) ([]byte, error) {
	path, err := s.Path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

// Remove deletes the object for id. Used only by the orphan sweep;
// documents tracked by the ledger are never removed.
func (s *Store) Remove(id string) error {
	path, err := s.Path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// IDs walks the object tree and returns every stored id, sorted.
// Temp files from interrupted writes are skipped.
func (s *Store) IDs() ([]string, error) {
	var ids []string
	err := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".tmp-") {
			return nil
		}
		id := strings.TrimSuffix(name, ".txt")
		if contentid.Valid(id) {
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk object store: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Verify recomputes the digest of the stored object and compares it
// against its id. A mismatch means the object was corrupted or
// tampered with after commit.
func (s *Store) Verify(id string) error {
	data, err := s.Read(id)
	if err != nil {
		return err
	}
	actual := contentid.DigestCanonical(string(data))
	if actual != id {
		return fmt.Errorf("object %s fails verification: content digests to %s", shortID(id), shortID(actual))
	}
	return nil
}

// Orphans returns stored ids that the provided membership check does
// not know about. Interrupted imports leave these behind; the clean
// command removes them.
func (s *Store) Orphans(known func(id string) (bool, error)) ([]string, error) {
	ids, err := s.IDs()
	if err != nil {
		return nil, err
	}
	var orphans []string
	for _, id := range ids {
		ok, err := known(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			orphans = append(orphans, id)
		}
	}
	return orphans, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
