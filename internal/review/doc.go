// Package review applies human review decisions to ledger documents:
// promoting pending documents, discarding bad ones, and reinstating
// discarded ones. Bulk operations apply each decision independently
// and report per-document outcomes instead of failing wholesale.
package review
