package domain

import "context"

// IdentityVerifier exchanges a raw Authorization header for a verified caller
// identity. Implementations call out to the identity provider per request.
type IdentityVerifier interface {
	// Verify validates the bearer credential and the token audience.
	Verify(ctx context.Context, authorizationHeader string) (CallerIdentity, error)
}

// AccountLedger is the persistent balance store for all subjects.
type AccountLedger interface {
	// Balance returns the current balance for a subject.
	// Returns ErrAccountNotFound when the subject has no account.
	Balance(ctx context.Context, subject string) (float64, error)

	// Deduct atomically decrements the subject's balance by amount and
	// returns the new balance. The decrement must be a store-side atomic
	// operation; the result may go negative.
	Deduct(ctx context.Context, subject string, amount float64) (float64, error)
}

// TransactionLog appends immutable audit records of billed calls.
type TransactionLog interface {
	// Record writes the record under a freshly generated unique id and
	// returns that id.
	Record(ctx context.Context, rec TransactionRecord) (string, error)
}

// UpstreamInvoker performs a single request/response exchange with the
// completion API.
type UpstreamInvoker interface {
	// Invoke forwards the raw request body verbatim and returns the parsed
	// result. Best effort: no retries.
	Invoke(ctx context.Context, body []byte) (*CompletionResult, error)
}

// CostCalculator calculates the price of a completed call.
type CostCalculator interface {
	// Calculate returns the total price for a given model and usage.
	Calculate(ctx context.Context, model string, usage Usage) (float64, error)
}

// PricingRegistry maintains pricing information for models.
type PricingRegistry interface {
	// GetPricing returns pricing config for a model.
	GetPricing(ctx context.Context, model string) (PricingConfig, error)

	// RegisterPricing adds pricing for a model.
	RegisterPricing(ctx context.Context, model string, config PricingConfig) error
}
