package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/davidbz/turnstile/internal/observability"
)

// MeterService orchestrates one metered completion call: identity check,
// balance-gated admission, upstream invocation, audit logging, and billing.
type MeterService struct {
	verifier IdentityVerifier
	ledger   AccountLedger
	txlog    TransactionLog
	upstream UpstreamInvoker
	costs    CostCalculator
}

// NewMeterService creates a new meter service (DI constructor).
func NewMeterService(
	verifier IdentityVerifier,
	ledger AccountLedger,
	txlog TransactionLog,
	upstream UpstreamInvoker,
	costs CostCalculator,
) *MeterService {
	return &MeterService{
		verifier: verifier,
		ledger:   ledger,
		txlog:    txlog,
		upstream: upstream,
		costs:    costs,
	}
}

// HandleCompletion runs the full pipeline for one inbound call. The stages
// are strictly sequential and any failure is terminal for the call:
//
//	verify -> admit (balance read) -> invoke upstream -> record -> bill
//
// The transaction record is written before the deduction, so the audit trail
// holds even when billing subsequently fails; a deduct failure after a
// successful upstream call is reported but never rolled back or retried.
func (s *MeterService) HandleCompletion(
	ctx context.Context,
	authorizationHeader string,
	body []byte,
) (*CompletionResult, error) {
	caller, err := s.verifier.Verify(ctx, authorizationHeader)
	if err != nil {
		return nil, fmt.Errorf("identity verification failed: %w", err)
	}

	ctx = observability.WithSubject(ctx, caller.Subject)
	logger := observability.FromContext(ctx)

	// Admission gate. The read is advisory: the balance can change between
	// this check and the deduct, but the deduct itself is atomic, so the
	// worst case is one extra call billed into debt, which blocks the next
	// admission.
	balance, err := s.ledger.Balance(ctx, caller.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: balance read: %w", ErrPersistenceFailure, err)
	}

	if balance < 0 {
		logger.Warn("admission denied, balance exhausted",
			zap.Float64("balance", balance),
		)
		return nil, fmt.Errorf("%w: balance is %g", ErrInsufficientBalance, balance)
	}

	start := time.Now()
	result, err := s.upstream.Invoke(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamFailure, err)
	}
	elapsed := time.Since(start)

	ctx = observability.WithModel(ctx, result.Model)
	logger = observability.FromContext(ctx)

	// Audit first: the upstream cost already occurred, so the record is the
	// source of truth even if billing fails below.
	txID, err := s.txlog.Record(ctx, TransactionRecord{
		UserID:          caller.Subject,
		Model:           result.Model,
		ReqTokens:       result.Usage.PromptTokens,
		ResTokens:       result.Usage.CompletionTokens,
		DurationSeconds: elapsed.Seconds(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: transaction log: %w", ErrPersistenceFailure, err)
	}

	price, err := s.costs.Calculate(ctx, result.Model, result.Usage)
	if err != nil {
		return nil, fmt.Errorf("%w: pricing: %w", ErrPersistenceFailure, err)
	}

	// Billed in full even if the result goes negative: debt carries to the
	// next admission check.
	newBalance, err := s.ledger.Deduct(ctx, caller.Subject, price)
	if err != nil {
		logger.Error("deduction failed after logged upstream call",
			zap.String("transaction_id", txID),
			zap.Float64("price", price),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: deduct: %w", ErrPersistenceFailure, err)
	}

	logger.Info("call billed",
		zap.String("transaction_id", txID),
		zap.Int("prompt_tokens", result.Usage.PromptTokens),
		zap.Int("completion_tokens", result.Usage.CompletionTokens),
		zap.Float64("price", price),
		zap.Float64("balance", newBalance),
		zap.Float64("duration_seconds", elapsed.Seconds()),
	)

	return result, nil
}
