package review

import (
	"context"
	"fmt"
	"log/slog"

	"docshed/internal/ledger"
	"docshed/internal/logging"
)

// Guard answers whether a document is currently being sealed into a
// bundle. Review decisions on such documents are refused so the
// bundle's membership cannot change under it.
type Guard interface {
	InFlight(id string) bool
}

// BatchResult records the outcome of one id within a bulk operation.
type BatchResult struct {
	ID  string
	Err error
}

// Summary counts the outcomes of a bulk operation.
type Summary struct {
	Applied int
	Failed  int
}

// Workflow applies review decisions to ledger documents. All status
// changes go through the ledger's guarded transitions, so an illegal
// decision fails without side effects.
type Workflow struct {
	store  *ledger.Store
	guard  Guard
	logger *slog.Logger
}

// NewWorkflow wires a review workflow. guard may be nil when no
// sealing can run concurrently; a nil logger discards output.
func NewWorkflow(store *ledger.Store, guard Guard, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Workflow{store: store, guard: guard, logger: logger}
}

// Promote marks a pending document ready for archival.
func (w *Workflow) Promote(ctx context.Context, id string) error {
	if err := w.checkGuard(id); err != nil {
		return err
	}
	if err := w.store.Promote(ctx, id); err != nil {
		return err
	}
	w.logger.Info("document promoted", "id", id)
	return nil
}

// Discard rejects a pending or ready document with a reason.
func (w *Workflow) Discard(ctx context.Context, id, reason string) error {
	if err := w.checkGuard(id); err != nil {
		return err
	}
	if err := w.store.Discard(ctx, id, reason); err != nil {
		return err
	}
	w.logger.Info("document discarded", "id", id, "reason", reason)
	return nil
}

// Reinstate returns a discarded document to pending for re-review.
func (w *Workflow) Reinstate(ctx context.Context, id string) error {
	if err := w.checkGuard(id); err != nil {
		return err
	}
	if err := w.store.Reinstate(ctx, id); err != nil {
		return err
	}
	w.logger.Info("document reinstated", "id", id)
	return nil
}

// PromoteAll promotes every id, continuing past failures. The results
// are returned in input order alongside a summary.
func (w *Workflow) PromoteAll(ctx context.Context, ids []string) ([]BatchResult, Summary) {
	return w.applyAll(ids, func(id string) error {
		return w.Promote(ctx, id)
	})
}

// DiscardAll discards every id with the same reason, continuing past
// failures.
func (w *Workflow) DiscardAll(ctx context.Context, ids []string, reason string) ([]BatchResult, Summary) {
	return w.applyAll(ids, func(id string) error {
		return w.Discard(ctx, id, reason)
	})
}

// ReinstateAll reinstates every id, continuing past failures.
func (w *Workflow) ReinstateAll(ctx context.Context, ids []string) ([]BatchResult, Summary) {
	return w.applyAll(ids, func(id string) error {
		return w.Reinstate(ctx, id)
	})
}

func (w *Workflow) applyAll(ids []string, apply func(id string) error) ([]BatchResult, Summary) {
	results := make([]BatchResult, 0, len(ids))
	var summary Summary
	for _, id := range ids {
		err := apply(id)
		if err != nil {
			summary.Failed++
		} else {
			summary.Applied++
		}
		results = append(results, BatchResult{ID: id, Err: err})
	}
	return results, summary
}

func (w *Workflow) checkGuard(id string) error {
	if w.guard != nil && w.guard.InFlight(id) {
		return fmt.Errorf("document %s is being sealed into a bundle", shortID(id))
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
