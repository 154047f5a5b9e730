package testsupport

import (
	"context"
	"testing"
	"time"

	"docshed/internal/config"
	"docshed/internal/contentid"
	"docshed/internal/docstore"
	"docshed/internal/ledger"
)

// MustOpenLedger opens the ledger at the config's ledger path and
// closes it when the test ends.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close ledger: %v", err)
		}
	})
	return store
}

// MustOpenDocstore opens the document store at the config's objects
// directory.
func MustOpenDocstore(t testing.TB, cfg *config.Config) *docstore.Store {
	t.Helper()
	docs, err := docstore.New(cfg.ObjectsDir())
	if err != nil {
		t.Fatalf("open docstore: %v", err)
	}
	return docs
}

// SeedDocument canonicalizes text, stores it, records a ledger row in
// the given status, and returns the content id.
func SeedDocument(t testing.TB, store *ledger.Store, docs *docstore.Store, text string, status ledger.Status) string {
	t.Helper()
	ctx := context.Background()

	canonical, err := contentid.Canonicalize([]byte(text))
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	id := contentid.DigestCanonical(canonical)
	if _, err := docs.Write(id, []byte(canonical)); err != nil {
		t.Fatalf("write document: %v", err)
	}

	doc := &ledger.Document{
		ID:          id,
		Status:      ledger.StatusPending,
		SourceRef:   "testsupport.txt",
		LengthBytes: int64(len(canonical)),
		ImportedAt:  time.Now().UTC(),
	}
	if _, err := store.Insert(ctx, doc); err != nil {
		t.Fatalf("insert document: %v", err)
	}

	switch status {
	case ledger.StatusPending:
	case ledger.StatusReady:
		if err := store.Promote(ctx, id); err != nil {
			t.Fatalf("promote document: %v", err)
		}
	case ledger.StatusDiscarded:
		if err := store.Discard(ctx, id, "seeded"); err != nil {
			t.Fatalf("discard document: %v", err)
		}
	default:
		t.Fatalf("cannot seed document in status %q", status)
	}
	return id
}
