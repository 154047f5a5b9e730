// Package logging constructs the slog loggers used across docshed.
//
// Two formats are supported: a compact console handler for interactive
// use and JSON for machine consumption. NewFromConfig tees output into
// the shed's log directory alongside stdout.
package logging
