package docstore_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docshed/internal/contentid"
	"docshed/internal/docstore"
)

func newStore(t *testing.T) *docstore.Store {
	t.Helper()
	store, err := docstore.New(filepath.Join(t.TempDir(), "objects"))
	if err != nil {
		t.Fatalf("docstore.New: %v", err)
	}
	return store
}

func canonicalDoc(t *testing.T, text string) (string, []byte) {
	t.Helper()
	canonical, err := contentid.Canonicalize([]byte(text))
	if err != nil {
		t.Fatal(err)
	}
	return contentid.DigestCanonical(canonical), []byte(canonical)
}

func TestWriteReadRoundTrip(t *testing.T) {
	store := newStore(t)
	id, canonical := canonicalDoc(t, "a bibliographic description of moderate length")

	wrote, err := store.Write(id, canonical)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !wrote {
		t.Fatal("first write should create the object")
	}

	got, err := store.Read(id)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(canonical) {
		t.Fatalf("content mismatch: got %q", got)
	}
}

func TestWriteIdempotent(t *testing.T) {
	store := newStore(t)
	id, canonical := canonicalDoc(t, "same content twice")

	if _, err := store.Write(id, canonical); err != nil {
		t.Fatal(err)
	}
	wrote, err := store.Write(id, canonical)
	if err != nil {
		t.Fatal(err)
	}
	if wrote {
		t.Fatal("second write of existing object should be a no-op")
	}
}

func TestShardedLayout(t *testing.T) {
	store := newStore(t)
	id, canonical := canonicalDoc(t, "sharding check")
	if _, err := store.Write(id, canonical); err != nil {
		t.Fatal(err)
	}

	path, err := store.Path(id)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(store.Root(), id[0:2], id[2:4], id+".txt")
	if path != want {
		t.Fatalf("path = %s, want %s", path, want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("object missing at sharded path: %v", err)
	}
}

func TestPathRejectsMalformedID(t *testing.T) {
	store := newStore(t)
	for _, bad := range []string{"", "short", strings.Repeat("z", 64), "../escape"} {
		if _, err := store.Path(bad); err == nil {
			t.Fatalf("expected rejection of id %q", bad)
		}
	}
}

func TestReadUnknownID(t *testing.T) {
	store := newStore(t)
	id := strings.Repeat("a", 64)
	if _, err := store.Read(id); err == nil {
		t.Fatal("expected error for unknown id")
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	store := newStore(t)
	id, canonical := canonicalDoc(t, "content that will be tampered with")
	if _, err := store.Write(id, canonical); err != nil {
		t.Fatal(err)
	}
	if err := store.Verify(id); err != nil {
		t.Fatalf("fresh object should verify: %v", err)
	}

	path, _ := store.Path(id)
	if err := os.WriteFile(path, []byte("tampered\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := store.Verify(id); err == nil {
		t.Fatal("expected verification failure after tampering")
	}
}

func TestIDsSkipsTempFiles(t *testing.T) {
	store := newStore(t)
	id, canonical := canonicalDoc(t, "visible document")
	if _, err := store.Write(id, canonical); err != nil {
		t.Fatal(err)
	}

	// Simulate an interrupted write.
	shard := filepath.Join(store.Root(), id[0:2], id[2:4])
	if err := os.WriteFile(filepath.Join(shard, ".tmp-dead-123"), []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	ids, err := store.IDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != id {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestOrphans(t *testing.T) {
	store := newStore(t)
	tracked, trackedBytes := canonicalDoc(t, "tracked by the ledger")
	orphan, orphanBytes := canonicalDoc(t, "left behind by an interrupted import")
	for _, obj := range []struct {
		id   string
		data []byte
	}{{tracked, trackedBytes}, {orphan, orphanBytes}} {
		if _, err := store.Write(obj.id, obj.data); err != nil {
			t.Fatal(err)
		}
	}

	orphans, err := store.Orphans(func(id string) (bool, error) {
		return id == tracked, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(orphans) != 1 || orphans[0] != orphan {
		t.Fatalf("unexpected orphans: %v", orphans)
	}

	if err := store.Remove(orphan); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	exists, err := store.Exists(orphan)
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Fatal("orphan still present after removal")
	}
}
