// Package docstore owns the canonical bytes of every document,
// addressed by content identifier in a sharded file tree.
//
// Writes are idempotent and race-free: identical ids carry identical
// bytes by construction, and new objects are committed with a
// temp-then-rename so a crash never exposes a partial object.
package docstore
