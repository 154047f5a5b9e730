package ledger

import "errors"

var (
	// ErrNotFound indicates the requested document id is absent.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidTransition indicates a caller attempted a status change
	// the state machine forbids. The ledger is left unchanged.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrBundleNotFound indicates the requested bundle id is absent.
	ErrBundleNotFound = errors.New("bundle not found")
)
