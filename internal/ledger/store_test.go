package ledger_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"docshed/internal/ledger"
)

func openStore(t *testing.T) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func fakeID(seed byte) string {
	return strings.Repeat(fmt.Sprintf("%02x", seed), 32)
}

func insertDoc(t *testing.T, store *ledger.Store, id string, status ledger.Status) *ledger.Document {
	t.Helper()
	doc := &ledger.Document{
		ID:          id,
		Status:      status,
		SourceRef:   "gnd/" + id[:8],
		LengthBytes: 128,
	}
	inserted, err := store.Insert(context.Background(), doc)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !inserted {
		t.Fatalf("expected insert of %s to report a new row", id[:8])
	}
	return doc
}

func TestInsertIsIdempotent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	id := fakeID(0x11)

	insertDoc(t, store, id, ledger.StatusPending)

	again, err := store.Insert(ctx, &ledger.Document{ID: id, Status: ledger.StatusPending})
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if again {
		t.Fatal("second insert of identical id should be a no-op")
	}

	summary, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Total != 1 {
		t.Fatalf("expected exactly one ledger entry, got %d", summary.Total)
	}
}

func TestConcurrentInsertsSingleEntry(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	id := fakeID(0x22)

	const workers = 8
	var wg sync.WaitGroup
	inserted := make([]bool, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inserted[i], errs[i] = store.Insert(ctx, &ledger.Document{
				ID:        id,
				Status:    ledger.StatusPending,
				SourceRef: fmt.Sprintf("src-%d", i),
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d insert failed: %v", i, errs[i])
		}
		if inserted[i] {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning insert, got %d", wins)
	}

	summary, err := store.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Total != 1 {
		t.Fatalf("expected one ledger entry, got %d", summary.Total)
	}
}

func TestCanTransitionTable(t *testing.T) {
	allowed := map[[2]ledger.Status]bool{
		{ledger.StatusPending, ledger.StatusReady}:     true,
		{ledger.StatusPending, ledger.StatusDiscarded}: true,
		{ledger.StatusReady, ledger.StatusArchived}:    true,
		{ledger.StatusReady, ledger.StatusDiscarded}:   true,
		{ledger.StatusDiscarded, ledger.StatusPending}: true,
	}
	for _, from := range ledger.AllStatuses() {
		for _, to := range ledger.AllStatuses() {
			want := allowed[[2]ledger.Status{from, to}]
			if got := ledger.CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestPromoteDiscardReinstate(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	id := fakeID(0x33)
	insertDoc(t, store, id, ledger.StatusPending)

	if err := store.Promote(ctx, id); err != nil {
		t.Fatalf("Promote: %v", err)
	}
	doc, err := store.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Status != ledger.StatusReady || doc.ReviewedAt == nil {
		t.Fatalf("after promote: %+v", doc)
	}

	if err := store.Discard(ctx, id, "curator rejection"); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	doc, _ = store.Get(ctx, id)
	if doc.Status != ledger.StatusDiscarded || doc.DiscardReason != "curator rejection" {
		t.Fatalf("after discard: %+v", doc)
	}

	if err := store.Reinstate(ctx, id); err != nil {
		t.Fatalf("Reinstate: %v", err)
	}
	doc, _ = store.Get(ctx, id)
	if doc.Status != ledger.StatusPending || doc.DiscardReason != "" {
		t.Fatalf("after reinstate: %+v", doc)
	}
}

func TestIllegalTransitionLeavesLedgerUnchanged(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	id := fakeID(0x44)
	insertDoc(t, store, id, ledger.StatusDiscarded)

	// A discarded document cannot be promoted.
	err := store.Promote(ctx, id)
	if !errors.Is(err, ledger.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	doc, getErr := store.Get(ctx, id)
	if getErr != nil {
		t.Fatal(getErr)
	}
	if doc.Status != ledger.StatusDiscarded {
		t.Fatalf("ledger mutated by rejected transition: %+v", doc)
	}
}

func TestTransitionUnknownID(t *testing.T) {
	store := openStore(t)
	err := store.Promote(context.Background(), fakeID(0x55))
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCommitBundleArchivesMembers(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	ids := []string{fakeID(0x61), fakeID(0x62), fakeID(0x63)}
	for _, id := range ids {
		insertDoc(t, store, id, ledger.StatusReady)
	}

	bundle := &ledger.Bundle{
		ID:             "bundle-1",
		ManifestDigest: strings.Repeat("e", 64),
		Compression:    "gzip",
		Path:           "/tmp/bundle-1.tar.gz",
	}
	for _, id := range ids {
		bundle.Members = append(bundle.Members, ledger.BundleMember{
			DocumentID: id, SizeBytes: 128, Digest: id,
		})
	}
	if err := store.CommitBundle(ctx, bundle); err != nil {
		t.Fatalf("CommitBundle: %v", err)
	}

	for _, id := range ids {
		doc, err := store.Get(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if doc.Status != ledger.StatusArchived || doc.ArchivedIn != "bundle-1" {
			t.Fatalf("member not archived: %+v", doc)
		}
	}

	fetched, err := store.GetBundle(ctx, "bundle-1")
	if err != nil {
		t.Fatalf("GetBundle: %v", err)
	}
	if fetched.MemberCount != 3 || len(fetched.Members) != 3 {
		t.Fatalf("unexpected bundle: %+v", fetched)
	}

	// Archived is terminal: no further transition may touch the rows.
	if err := store.Discard(ctx, ids[0], "too late"); !errors.Is(err, ledger.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition out of archived, got %v", err)
	}
}

func TestCommitBundleRollsBackWhenMemberNotReady(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	ready := fakeID(0x71)
	pending := fakeID(0x72)
	insertDoc(t, store, ready, ledger.StatusReady)
	insertDoc(t, store, pending, ledger.StatusPending)

	bundle := &ledger.Bundle{
		ID:             "bundle-bad",
		ManifestDigest: strings.Repeat("f", 64),
		Compression:    "gzip",
		Path:           "/tmp/bundle-bad.tar.gz",
		Members: []ledger.BundleMember{
			{DocumentID: ready, SizeBytes: 1, Digest: ready},
			{DocumentID: pending, SizeBytes: 1, Digest: pending},
		},
	}
	if err := store.CommitBundle(ctx, bundle); !errors.Is(err, ledger.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// Rollback must leave the ready member untouched and record nothing.
	doc, err := store.Get(ctx, ready)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Status != ledger.StatusReady || doc.ArchivedIn != "" {
		t.Fatalf("rollback leaked state: %+v", doc)
	}
	if _, err := store.GetBundle(ctx, "bundle-bad"); !errors.Is(err, ledger.ErrBundleNotFound) {
		t.Fatalf("expected ErrBundleNotFound, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	a := &ledger.Document{ID: fakeID(0x81), Status: ledger.StatusPending, SourceRef: "gnd/100"}
	b := &ledger.Document{ID: fakeID(0x82), Status: ledger.StatusReady, SourceRef: "gnd/200"}
	c := &ledger.Document{ID: fakeID(0x83), Status: ledger.StatusReady, SourceRef: "zdb/300"}
	for _, doc := range []*ledger.Document{a, b, c} {
		if _, err := store.Insert(ctx, doc); err != nil {
			t.Fatal(err)
		}
	}

	ready, err := store.List(ctx, ledger.Filter{Statuses: []ledger.Status{ledger.StatusReady}})
	if err != nil {
		t.Fatal(err)
	}
	if len(ready) != 2 {
		t.Fatalf("expected 2 ready documents, got %d", len(ready))
	}

	gnd, err := store.List(ctx, ledger.Filter{SourcePrefix: "gnd/"})
	if err != nil {
		t.Fatal(err)
	}
	if len(gnd) != 2 {
		t.Fatalf("expected 2 gnd documents, got %d", len(gnd))
	}

	future, err := store.List(ctx, ledger.Filter{ImportedAfter: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if len(future) != 0 {
		t.Fatalf("expected no documents imported in the future, got %d", len(future))
	}
}

func TestIDsSortedCanonically(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, seed := range []byte{0x9c, 0x91, 0x97} {
		insertDoc(t, store, fakeID(seed), ledger.StatusReady)
	}

	ids, err := store.IDs(ctx, ledger.Filter{Statuses: []ledger.Status{ledger.StatusReady}})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("ids not in canonical order: %v", ids)
		}
	}
}

func TestIDsHonorsLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, seed := range []byte{0xb1, 0xb2, 0xb3} {
		insertDoc(t, store, fakeID(seed), ledger.StatusReady)
	}

	ids, err := store.IDs(ctx, ledger.Filter{
		Statuses: []ledger.Status{ledger.StatusReady},
		Limit:    2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("Limit=2 but IDs returned %d ids", len(ids))
	}
	if ids[0] >= ids[1] {
		t.Fatalf("limited ids not in canonical order: %v", ids)
	}
}

func TestExportCSV(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	insertDoc(t, store, fakeID(0xa1), ledger.StatusPending)
	insertDoc(t, store, fakeID(0xa2), ledger.StatusDiscarded)

	var buf bytes.Buffer
	if err := store.ExportCSV(ctx, &buf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,status,source_ref") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	// Discarded rows stay visible for audit.
	if !strings.Contains(buf.String(), string(ledger.StatusDiscarded)) {
		t.Fatal("discarded document missing from export")
	}
}

func TestReopenPreservesState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.db")

	store, err := ledger.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	id := fakeID(0xb1)
	if _, err := store.Insert(context.Background(), &ledger.Document{ID: id, Status: ledger.StatusReady}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	doc, err := reopened.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Status != ledger.StatusReady {
		t.Fatalf("state lost across reopen: %+v", doc)
	}
}
