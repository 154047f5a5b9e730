package api

import (
	"context"
	"errors"
	"testing"

	"docshed/internal/contentid"
	"docshed/internal/docstore"
	"docshed/internal/ledger"
	"docshed/internal/testsupport"
)

func newService(t *testing.T) (*Service, *ledger.Store, *docstore.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	docs := testsupport.MustOpenDocstore(t, cfg)
	return NewService(store, docs), store, docs
}

func TestDocumentAndContent(t *testing.T) {
	service, store, docs := newService(t)
	ctx := context.Background()
	text := "a perfectly ordinary seed document body\n"
	id := testsupport.SeedDocument(t, store, docs, text, ledger.StatusPending)

	view, err := service.Document(ctx, id)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if view.ID != id || view.Status != "pending" {
		t.Fatalf("unexpected view: %+v", view)
	}

	content, err := service.DocumentContent(ctx, id)
	if err != nil {
		t.Fatalf("DocumentContent: %v", err)
	}
	if string(content) != text {
		t.Fatalf("content mismatch: %q", content)
	}
	if contentid.DigestCanonical(string(content)) != id {
		t.Fatal("content does not hash to its id")
	}
}

func TestDocumentUnknownID(t *testing.T) {
	service, _, _ := newService(t)
	_, err := service.Document(context.Background(), "0000000000000000000000000000000000000000000000000000000000000000")
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDocumentsFilterByStatus(t *testing.T) {
	service, store, docs := newService(t)
	ctx := context.Background()
	testsupport.SeedDocument(t, store, docs, "first seed document body text\n", ledger.StatusPending)
	ready := testsupport.SeedDocument(t, store, docs, "second seed document body text\n", ledger.StatusReady)

	views, err := service.Documents(ctx, ledger.Filter{Statuses: []ledger.Status{ledger.StatusReady}})
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(views) != 1 || views[0].ID != ready {
		t.Fatalf("unexpected views: %+v", views)
	}

	summary, err := service.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Total != 2 || summary.Pending != 1 || summary.Ready != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestBundleNotFound(t *testing.T) {
	service, _, _ := newService(t)
	_, err := service.Bundle(context.Background(), "no-such-bundle")
	if !errors.Is(err, ledger.ErrBundleNotFound) {
		t.Fatalf("err = %v, want ErrBundleNotFound", err)
	}
}
