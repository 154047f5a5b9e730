package httpd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"docshed/internal/api"
	"docshed/internal/contentid"
	"docshed/internal/docstore"
	"docshed/internal/ledger"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()

	store, err := ledger.Open(filepath.Join(dir, "ledger.db"))
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	docs, err := docstore.New(filepath.Join(dir, "objects"))
	if err != nil {
		t.Fatalf("docstore.New: %v", err)
	}

	text := "a perfectly ordinary test document body\n"
	canonical, err := contentid.Canonicalize([]byte(text))
	if err != nil {
		t.Fatal(err)
	}
	id := contentid.DigestCanonical(canonical)
	if _, err := docs.Write(id, []byte(canonical)); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Insert(context.Background(), &ledger.Document{
		ID:          id,
		Status:      ledger.StatusPending,
		SourceRef:   "seed.txt",
		LengthBytes: int64(len(canonical)),
		ImportedAt:  time.Now().UTC(),
	}); err != nil {
		t.Fatal(err)
	}

	server := NewServer(api.NewService(store, docs), "127.0.0.1:0", nil)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, id
}

func getJSON(t *testing.T, url string, into any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if into != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	var body map[string]string
	if status := getJSON(t, ts.URL+"/healthz", &body); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestDocumentEndpoints(t *testing.T) {
	ts, id := newTestServer(t)

	var listing struct {
		Documents []api.DocumentView `json:"documents"`
		Count     int                `json:"count"`
	}
	if status := getJSON(t, ts.URL+"/documents?status=pending", &listing); status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	if listing.Count != 1 || listing.Documents[0].ID != id {
		t.Fatalf("unexpected listing: %+v", listing)
	}

	var doc api.DocumentView
	if status := getJSON(t, ts.URL+"/documents/"+id, &doc); status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	if doc.SourceRef != "seed.txt" {
		t.Fatalf("unexpected document: %+v", doc)
	}

	resp, err := http.Get(ts.URL + "/documents/" + id + "/content")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("content status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestDocumentNotFound(t *testing.T) {
	ts, _ := newTestServer(t)
	unknown := "0000000000000000000000000000000000000000000000000000000000000000"
	if status := getJSON(t, ts.URL+"/documents/"+unknown, nil); status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
}

func TestBadStatusFilter(t *testing.T) {
	ts, _ := newTestServer(t)
	if status := getJSON(t, ts.URL+"/documents?status=bogus", nil); status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestBundlesEmpty(t *testing.T) {
	ts, _ := newTestServer(t)
	var listing struct {
		Count int `json:"count"`
	}
	if status := getJSON(t, ts.URL+"/bundles", &listing); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if listing.Count != 0 {
		t.Fatalf("count = %d, want 0", listing.Count)
	}
}
