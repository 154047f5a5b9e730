// Package importer ingests raw documents into the shed: it
// canonicalizes each candidate, derives its content identifier,
// validates it, stores the canonical text, and records the outcome in
// the ledger. A worker pool processes candidates in parallel; content
// already known to the ledger is counted as a duplicate and left
// untouched, which makes import runs safe to repeat.
package importer
