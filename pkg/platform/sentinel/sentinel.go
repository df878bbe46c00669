// Package sentinel holds the storage-level facts stores report. Services map
// them onto domain-errors codes; handlers never see them directly.
package sentinel

import "errors"

var (
	// ErrNotFound: no row or entry with that key.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a uniqueness rule rejected the write (duplicate email,
	// ward code, second vote on the same proposal).
	ErrConflict = errors.New("conflict")
	// ErrAlreadyUsed: a one-shot resource such as a vote slot or a bill
	// payment was consumed concurrently.
	ErrAlreadyUsed = errors.New("already used")
	// ErrInvalidState: the stored entity changed state under the caller.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnavailable: the backend (Postgres, Redis) could not be reached.
	ErrUnavailable = errors.New("unavailable")
)
