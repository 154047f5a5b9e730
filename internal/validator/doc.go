// Package validator decides whether an imported document is fit for
// the shed: non-degenerate length, a tolerable share of control or
// unassigned characters, and a language from the configured
// allow-list. The verdict drives the document's initial ledger status;
// the validator itself never mutates anything.
package validator
