package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/davidbz/turnstile/internal/domain"
)

const (
	transactionKeyPrefix = "txn:"

	// Short random suffix appended to the timestamp so IDs generated within
	// the same nanosecond across processes cannot collide in practice.
	transactionIDSuffixLen = 8
)

// TransactionLog appends immutable audit records to Redis. Write-only from
// this service's perspective.
type TransactionLog struct {
	client *redis.Client
}

// NewTransactionLog creates a new Redis transaction log adapter.
func NewTransactionLog(client *redis.Client) *TransactionLog {
	return &TransactionLog{
		client: client,
	}
}

// Record writes the record under a freshly generated time-derived ID and
// returns that ID. Records are written with SET NX, so an ID collision is a
// hard error rather than a silent overwrite.
func (t *TransactionLog) Record(
	ctx context.Context,
	rec domain.TransactionRecord,
) (string, error) {
	rec.ID = newTransactionID()

	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal transaction record: %w", err)
	}

	created, err := t.client.SetNX(ctx, transactionKey(rec.ID), payload, 0).Result()
	if err != nil {
		return "", fmt.Errorf("transaction write failed: %w", err)
	}
	if !created {
		return "", fmt.Errorf("transaction id collision: %s", rec.ID)
	}

	return rec.ID, nil
}

func transactionKey(id string) string {
	return transactionKeyPrefix + id
}

func newTransactionID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.NewString()[:transactionIDSuffixLen])
}
