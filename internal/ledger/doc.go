// Package ledger persists the authoritative document record set in
// SQLite and enforces the document lifecycle.
//
// Every document is keyed by its content identifier; the primary-key
// constraint makes imports idempotent under concurrency. Status changes
// are compare-and-set updates guarded by the transition function, so an
// illegal change fails with ErrInvalidTransition and leaves the row
// untouched. Bundle commits archive their members inside one
// transaction; readers never observe a half-committed seal.
//
// Treat this package as the single source of truth for lifecycle
// semantics; when adding statuses, update CanTransition, schema.sql,
// and bump schemaVersion together.
package ledger
