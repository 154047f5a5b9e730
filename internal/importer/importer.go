package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"docshed/internal/contentid"
	"docshed/internal/docstore"
	"docshed/internal/ledger"
	"docshed/internal/logging"
	"docshed/internal/validator"
)

// Summary aggregates the outcome of one import run. Imported counts
// newly recorded documents of any status; Promoted and Discarded are
// subsets of it.
type Summary struct {
	Seen           int
	Imported       int
	Promoted       int
	Discarded      int
	Duplicates     int
	EncodingErrors int
	Failed         int
}

// Options configure a Pipeline beyond its collaborators.
type Options struct {
	Workers     int
	AutoPromote bool
	// Progress, when set, is called once per processed candidate. It
	// must be safe for concurrent use.
	Progress func()
}

// Pipeline ingests candidates into the ledger and document store. Runs
// are idempotent: re-importing the same content only increments the
// duplicate counter.
type Pipeline struct {
	store     *ledger.Store
	docs      *docstore.Store
	validator *validator.Validator
	opts      Options
	logger    *slog.Logger

	mu      sync.Mutex
	summary Summary
}

// NewPipeline wires an import pipeline. A nil logger discards output.
func NewPipeline(store *ledger.Store, docs *docstore.Store, v *validator.Validator, opts Options, logger *slog.Logger) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pipeline{store: store, docs: docs, validator: v, opts: opts, logger: logger}
}

// Run drains the source through the worker pool and returns the run
// summary. Candidate-level failures are counted and logged without
// aborting the run; source errors and context cancellation abort it.
func (p *Pipeline) Run(ctx context.Context, source Source) (Summary, error) {
	p.mu.Lock()
	p.summary = Summary{}
	p.mu.Unlock()

	group, ctx := errgroup.WithContext(ctx)
	candidates := make(chan Candidate, p.opts.Workers)

	group.Go(func() error {
		defer close(candidates)
		for {
			candidate, err := source.Next(ctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading import source: %w", err)
			}
			select {
			case candidates <- candidate:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	for i := 0; i < p.opts.Workers; i++ {
		group.Go(func() error {
			for candidate := range candidates {
				if err := ctx.Err(); err != nil {
					return err
				}
				p.process(ctx, candidate)
				if p.opts.Progress != nil {
					p.opts.Progress()
				}
			}
			return nil
		})
	}

	err := group.Wait()

	p.mu.Lock()
	summary := p.summary
	p.mu.Unlock()
	return summary, err
}

func (p *Pipeline) process(ctx context.Context, candidate Candidate) {
	p.count(func(s *Summary) { s.Seen++ })

	canonical, err := contentid.Canonicalize(candidate.Raw)
	if err != nil {
		p.count(func(s *Summary) { s.EncodingErrors++ })
		p.logger.Warn("skipping undecodable candidate", "source", candidate.SourceRef)
		return
	}
	id := contentid.DigestCanonical(canonical)

	verdict := p.validator.Check(canonical)

	// Content lands in the store before the ledger row exists, so a
	// recorded document can always be read back. Both writes are
	// idempotent.
	if _, err := p.docs.Write(id, []byte(canonical)); err != nil {
		p.fail(candidate, id, err)
		return
	}

	doc := &ledger.Document{
		ID:          id,
		Status:      ledger.StatusPending,
		SourceRef:   candidate.SourceRef,
		LengthBytes: int64(len(canonical)),
		ImportedAt:  time.Now().UTC(),
	}
	if verdict.Accepted {
		doc.DetectedLanguage = verdict.Language
		doc.LanguageConfidence = verdict.Confidence
	} else {
		doc.Status = ledger.StatusDiscarded
		doc.DiscardReason = string(verdict.Reason)
	}

	inserted, err := p.store.Insert(ctx, doc)
	if err != nil {
		p.fail(candidate, id, err)
		return
	}
	if !inserted {
		p.count(func(s *Summary) { s.Duplicates++ })
		p.logger.Debug("duplicate content", "id", id, "source", candidate.SourceRef)
		return
	}

	p.count(func(s *Summary) { s.Imported++ })
	if !verdict.Accepted {
		p.count(func(s *Summary) { s.Discarded++ })
		p.logger.Info("document discarded on import",
			"id", id,
			"source", candidate.SourceRef,
			"reason", verdict.Reason)
		return
	}

	if p.opts.AutoPromote {
		if err := p.store.Promote(ctx, id); err != nil {
			p.fail(candidate, id, err)
			return
		}
		p.count(func(s *Summary) { s.Promoted++ })
	}
	p.logger.Debug("document imported",
		"id", id,
		"source", candidate.SourceRef,
		"language", verdict.Language)
}

func (p *Pipeline) fail(candidate Candidate, id string, err error) {
	p.count(func(s *Summary) { s.Failed++ })
	p.logger.Error("import candidate failed",
		"id", id,
		"source", candidate.SourceRef,
		"error", err)
}

func (p *Pipeline) count(update func(*Summary)) {
	p.mu.Lock()
	update(&p.summary)
	p.mu.Unlock()
}
