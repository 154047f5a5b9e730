// Package bundle seals ready documents into compressed tar archives
// and verifies or restores them later. Every archive starts with a
// manifest listing its members in canonical order; the keyed digest of
// that manifest is recorded in the ledger, which makes bundle contents
// reproducible and tamper-evident.
package bundle
