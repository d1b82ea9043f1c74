// Package redis implements the account ledger and the transaction log on
// Redis. Balance decrements use HINCRBYFLOAT, so concurrent deductions for the
// same subject are serialized store-side and never lose updates.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/turnstile/internal/domain"
)

const (
	accountKeyPrefix = "account:"
	balanceField     = "balance"
)

// Ledger is the Redis-backed prepaid balance store.
type Ledger struct {
	client *redis.Client
}

// NewLedger creates a new Redis ledger adapter.
func NewLedger(client *redis.Client) *Ledger {
	return &Ledger{
		client: client,
	}
}

// Balance returns the current balance for a subject. A missing account hash
// yields domain.ErrAccountNotFound, not a zero balance.
func (l *Ledger) Balance(ctx context.Context, subject string) (float64, error) {
	val, err := l.client.HGet(ctx, accountKey(subject), balanceField).Result()
	if errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, subject)
	}
	if err != nil {
		return 0, fmt.Errorf("balance read failed: %w", err)
	}

	balance, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed balance for %s: %w", subject, err)
	}

	return balance, nil
}

// Deduct atomically decrements the subject's balance and returns the new
// value. Fractional amounts are supported and the result may go negative.
func (l *Ledger) Deduct(ctx context.Context, subject string, amount float64) (float64, error) {
	newBalance, err := l.client.HIncrByFloat(ctx, accountKey(subject), balanceField, -amount).Result()
	if err != nil {
		return 0, fmt.Errorf("deduct failed: %w", err)
	}

	return newBalance, nil
}

// Credit atomically increments the subject's balance, creating the account if
// it does not exist. Used by operator tooling to provision and top up accounts.
func (l *Ledger) Credit(ctx context.Context, subject string, amount float64) (float64, error) {
	newBalance, err := l.client.HIncrByFloat(ctx, accountKey(subject), balanceField, amount).Result()
	if err != nil {
		return 0, fmt.Errorf("credit failed: %w", err)
	}

	return newBalance, nil
}

func accountKey(subject string) string {
	return accountKeyPrefix + subject
}
