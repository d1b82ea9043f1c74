package redis_test

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/turnstile/internal/domain"
	redisledger "github.com/davidbz/turnstile/internal/ledger/redis"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return server, client
}

func seedAccount(t *testing.T, server *miniredis.Miniredis, subject string, balance float64) {
	t.Helper()
	server.HSet("account:"+subject, "balance", strconv.FormatFloat(balance, 'f', -1, 64))
}

func TestLedger_Balance(t *testing.T) {
	ctx := context.Background()
	server, client := newTestClient(t)
	ledger := redisledger.NewLedger(client)

	t.Run("missing account is not found, not zero", func(t *testing.T) {
		_, err := ledger.Balance(ctx, "nobody@example.com")
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
	})

	t.Run("existing account returns its balance", func(t *testing.T) {
		seedAccount(t, server, "alice@example.com", 10.0)

		balance, err := ledger.Balance(ctx, "alice@example.com")
		require.NoError(t, err)
		require.InDelta(t, 10.0, balance, 1e-9)
	})

	t.Run("negative balances are readable", func(t *testing.T) {
		seedAccount(t, server, "debtor@example.com", -0.25)

		balance, err := ledger.Balance(ctx, "debtor@example.com")
		require.NoError(t, err)
		require.InDelta(t, -0.25, balance, 1e-9)
	})
}

func TestLedger_Deduct(t *testing.T) {
	ctx := context.Background()
	server, client := newTestClient(t)
	ledger := redisledger.NewLedger(client)

	t.Run("fractional deduction", func(t *testing.T) {
		seedAccount(t, server, "alice@example.com", 10.0)

		newBalance, err := ledger.Deduct(ctx, "alice@example.com", 0.00025213)
		require.NoError(t, err)
		require.InDelta(t, 9.99974787, newBalance, 1e-9)
	})

	t.Run("deduction may drive the balance negative", func(t *testing.T) {
		seedAccount(t, server, "bob@example.com", 0.0001)

		newBalance, err := ledger.Deduct(ctx, "bob@example.com", 0.05)
		require.NoError(t, err)
		require.Negative(t, newBalance)
	})
}

func TestLedger_Credit(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	ledger := redisledger.NewLedger(client)

	newBalance, err := ledger.Credit(ctx, "fresh@example.com", 25.0)
	require.NoError(t, err)
	require.InDelta(t, 25.0, newBalance, 1e-9)

	balance, err := ledger.Balance(ctx, "fresh@example.com")
	require.NoError(t, err)
	require.InDelta(t, 25.0, balance, 1e-9)
}

func TestLedger_ConcurrentDeductionsLoseNoUpdates(t *testing.T) {
	ctx := context.Background()
	server, client := newTestClient(t)
	ledger := redisledger.NewLedger(client)

	const (
		workers    = 50
		deductions = 10
		amount     = 0.5
	)

	seedAccount(t, server, "busy@example.com", 1000.0)

	errCh := make(chan error, workers*deductions)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := 0; d < deductions; d++ {
				if _, err := ledger.Deduct(ctx, "busy@example.com", amount); err != nil {
					errCh <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	balance, err := ledger.Balance(ctx, "busy@example.com")
	require.NoError(t, err)

	// Equivalent to sequential application: no lost updates.
	expected := 1000.0 - float64(workers*deductions)*amount
	require.InDelta(t, expected, balance, 1e-6)
}
