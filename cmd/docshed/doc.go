// Command docshed manages a content-addressed shed of plain-text
// documents: importing and validating new text, reviewing what gets
// kept, sealing reviewed documents into reproducible bundles, and
// serving the ledger over HTTP.
package main
