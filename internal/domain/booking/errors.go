package booking

import "errors"

var (
	// ErrConfiguration is returned before any surface interaction when the
	// run cannot start (missing credentials, invalid rule).
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound marks a structural mismatch on the surface: too few day
	// columns, no matching session card or no reservation-detail link.
	// It is never retried.
	ErrNotFound = errors.New("not found")

	ErrTimedOut      = errors.New("timed out waiting for reserve action")
	ErrFinishTimeout = errors.New("timed out waiting for finish action")
)
