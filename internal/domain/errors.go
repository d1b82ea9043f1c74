package domain

import "errors"

// Error kinds for the metering pipeline. The HTTP layer maps each kind to a
// distinct status code, so downstream failures are never misreported as
// authentication problems.
var (
	// ErrUnauthenticated covers a missing/malformed Authorization header,
	// a token the identity provider rejects, and an audience mismatch.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrAccountNotFound means the subject has no ledger account. This is a
	// hard admission denial, not a zero balance.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientBalance means the subject's balance was negative at
	// admission time.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrUpstreamFailure wraps transport and protocol failures of the
	// upstream completion call.
	ErrUpstreamFailure = errors.New("upstream failure")

	// ErrPersistenceFailure wraps ledger and transaction-log failures.
	ErrPersistenceFailure = errors.New("persistence failure")
)
