package redis_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/turnstile/internal/domain"
	redisledger "github.com/davidbz/turnstile/internal/ledger/redis"
)

func TestTransactionLog_Record(t *testing.T) {
	ctx := context.Background()
	server, client := newTestClient(t)
	txlog := redisledger.NewTransactionLog(client)

	rec := domain.TransactionRecord{
		UserID:          "alice@example.com",
		Model:           "gpt-3.5-turbo",
		ReqTokens:       100,
		ResTokens:       50,
		DurationSeconds: 1.25,
	}

	id, err := txlog.Record(ctx, rec)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	stored, err := server.Get("txn:" + id)
	require.NoError(t, err)

	var persisted domain.TransactionRecord
	require.NoError(t, json.Unmarshal([]byte(stored), &persisted))
	require.Equal(t, id, persisted.ID)
	require.Equal(t, rec.UserID, persisted.UserID)
	require.Equal(t, rec.Model, persisted.Model)
	require.Equal(t, rec.ReqTokens, persisted.ReqTokens)
	require.Equal(t, rec.ResTokens, persisted.ResTokens)
	require.InDelta(t, rec.DurationSeconds, persisted.DurationSeconds, 1e-9)
}

func TestTransactionLog_GeneratedIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	txlog := redisledger.NewTransactionLog(client)

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		id, err := txlog.Record(ctx, domain.TransactionRecord{
			UserID: "alice@example.com",
			Model:  "gpt-4",
		})
		require.NoError(t, err)

		_, dup := seen[id]
		require.False(t, dup, "duplicate transaction id %s", id)
		seen[id] = struct{}{}
	}
}
