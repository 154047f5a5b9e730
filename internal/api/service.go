package api

import (
	"context"
	"time"

	"docshed/internal/docstore"
	"docshed/internal/ledger"
)

// DocumentView is the JSON shape of a ledger document.
type DocumentView struct {
	ID                 string     `json:"id"`
	Status             string     `json:"status"`
	SourceRef          string     `json:"source_ref,omitempty"`
	LengthBytes        int64      `json:"length_bytes"`
	DetectedLanguage   string     `json:"detected_language,omitempty"`
	LanguageConfidence float64    `json:"language_confidence,omitempty"`
	DiscardReason      string     `json:"discard_reason,omitempty"`
	ImportedAt         time.Time  `json:"imported_at"`
	ReviewedAt         *time.Time `json:"reviewed_at,omitempty"`
	ArchivedIn         string     `json:"archived_in,omitempty"`
}

// BundleView is the JSON shape of a bundle record.
type BundleView struct {
	ID             string             `json:"id"`
	CreatedAt      time.Time          `json:"created_at"`
	ManifestDigest string             `json:"manifest_digest"`
	Compression    string             `json:"compression"`
	Path           string             `json:"path"`
	MemberCount    int                `json:"member_count"`
	Members        []BundleMemberView `json:"members,omitempty"`
}

// BundleMemberView is one document of a bundle manifest.
type BundleMemberView struct {
	DocumentID string `json:"document_id"`
	SizeBytes  int64  `json:"size_bytes"`
	Digest     string `json:"digest"`
}

// SummaryView reports document counts per status.
type SummaryView struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Ready     int `json:"ready"`
	Discarded int `json:"discarded"`
	Archived  int `json:"archived"`
}

// Service is the read-only query surface over the ledger and document
// store. It never mutates state; imports, reviews and seals go through
// their own packages.
type Service struct {
	store *ledger.Store
	docs  *docstore.Store
}

// NewService wires a query service.
func NewService(store *ledger.Store, docs *docstore.Store) *Service {
	return &Service{store: store, docs: docs}
}

// Documents lists ledger documents matching the filter.
func (s *Service) Documents(ctx context.Context, filter ledger.Filter) ([]DocumentView, error) {
	docs, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]DocumentView, 0, len(docs))
	for _, doc := range docs {
		views = append(views, documentView(doc))
	}
	return views, nil
}

// Document fetches a single document record. Returns
// ledger.ErrNotFound for unknown ids.
func (s *Service) Document(ctx context.Context, id string) (DocumentView, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return DocumentView{}, err
	}
	return documentView(doc), nil
}

// DocumentContent returns the canonical text of a document. The id
// must exist in the ledger; content of documents in any status can be
// read as long as it is still in the store.
func (s *Service) DocumentContent(ctx context.Context, id string) ([]byte, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.docs.Read(id)
}

// Bundles lists bundle records without their member manifests.
func (s *Service) Bundles(ctx context.Context) ([]BundleView, error) {
	bundles, err := s.store.ListBundles(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]BundleView, 0, len(bundles))
	for _, bundle := range bundles {
		views = append(views, bundleView(bundle))
	}
	return views, nil
}

// Bundle fetches one bundle with its full manifest. Returns
// ledger.ErrBundleNotFound for unknown ids.
func (s *Service) Bundle(ctx context.Context, id string) (BundleView, error) {
	bundle, err := s.store.GetBundle(ctx, id)
	if err != nil {
		return BundleView{}, err
	}
	return bundleView(bundle), nil
}

// Summary aggregates document counts per status.
func (s *Service) Summary(ctx context.Context) (SummaryView, error) {
	summary, err := s.store.Summary(ctx)
	if err != nil {
		return SummaryView{}, err
	}
	return SummaryView{
		Total:     summary.Total,
		Pending:   summary.Pending,
		Ready:     summary.Ready,
		Discarded: summary.Discarded,
		Archived:  summary.Archived,
	}, nil
}

func documentView(doc *ledger.Document) DocumentView {
	return DocumentView{
		ID:                 doc.ID,
		Status:             string(doc.Status),
		SourceRef:          doc.SourceRef,
		LengthBytes:        doc.LengthBytes,
		DetectedLanguage:   doc.DetectedLanguage,
		LanguageConfidence: doc.LanguageConfidence,
		DiscardReason:      doc.DiscardReason,
		ImportedAt:         doc.ImportedAt,
		ReviewedAt:         doc.ReviewedAt,
		ArchivedIn:         doc.ArchivedIn,
	}
}

func bundleView(bundle *ledger.Bundle) BundleView {
	view := BundleView{
		ID:             bundle.ID,
		CreatedAt:      bundle.CreatedAt,
		ManifestDigest: bundle.ManifestDigest,
		Compression:    bundle.Compression,
		Path:           bundle.Path,
		MemberCount:    bundle.MemberCount,
	}
	for _, member := range bundle.Members {
		view.Members = append(view.Members, BundleMemberView{
			DocumentID: member.DocumentID,
			SizeBytes:  member.SizeBytes,
			Digest:     member.Digest,
		})
	}
	return view
}
