// Package api exposes read-only views over the ledger and document
// store for the HTTP server and the CLI's reporting commands.
package api
