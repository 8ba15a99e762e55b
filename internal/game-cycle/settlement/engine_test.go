package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/outcome"
	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/pool"
)

// fakeLedger simula o wallet-service: idempotente por referência, com
// falha injetável por usuário.
type fakeLedger struct {
	mu        sync.Mutex
	balances  map[string]int64
	credits   map[string]int // chamadas por referência
	failUsers map[string]bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances:  make(map[string]int64),
		credits:   make(map[string]int),
		failUsers: make(map[string]bool),
	}
}

func (f *fakeLedger) Credit(ctx context.Context, userID string, amountCents int64, externalRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUsers[userID] {
		return errors.New("wallet unavailable")
	}
	f.credits[externalRef]++
	if f.credits[externalRef] > 1 {
		return nil // dedupe por referência, como o ledger real
	}
	f.balances[userID] += amountCents
	return nil
}

func (f *fakeLedger) balance(userID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID]
}

func setupPool(t *testing.T, store *pool.Memory, bets []pool.Bet) pool.Pool {
	t.Helper()
	p, err := store.CreatePool(context.Background(), pool.Pool{})
	require.NoError(t, err)
	for i := range bets {
		bets[i].PoolID = p.ID
		_, err := store.CreateBet(context.Background(), bets[i])
		require.NoError(t, err)
	}
	require.NoError(t, store.TransitionState(context.Background(), p.ID, pool.StateOpen, pool.StateLocked))
	p2, _ := store.GetPool(p.ID)
	return p2
}

func TestSettle_WinnerCreditedLoserNot(t *testing.T) {
	ctx := context.Background()
	store := pool.NewMemory()
	ledger := newFakeLedger()
	engine := New(store, ledger, zap.NewNop())

	p := setupPool(t, store, []pool.Bet{
		{ID: "bet-a", UserID: "user-a", Side: pool.SideHeads, StakeCents: 100},
		{ID: "bet-b", UserID: "user-b", Side: pool.SideTails, StakeCents: 50},
	})

	results, remaining, err := engine.Settle(ctx, p, outcome.For(p, pool.SideHeads))
	require.NoError(t, err)
	assert.Zero(t, remaining)
	assert.Len(t, results, 2)

	// A recebe o stake de volta mais todo o lado perdedor
	assert.Equal(t, int64(150), ledger.balance("user-a"))
	assert.Equal(t, int64(0), ledger.balance("user-b"))

	betB, _ := store.GetBet("bet-b")
	assert.True(t, betB.Settled)
	require.NotNil(t, betB.PayoutCents)
	assert.Equal(t, int64(0), *betB.PayoutCents)
}

func TestSettle_PerBetFailureIsolated(t *testing.T) {
	ctx := context.Background()
	store := pool.NewMemory()
	ledger := newFakeLedger()
	ledger.failUsers["user-b"] = true
	engine := New(store, ledger, zap.NewNop())

	p := setupPool(t, store, []pool.Bet{
		{ID: "bet-a", UserID: "user-a", Side: pool.SideHeads, StakeCents: 100},
		{ID: "bet-b", UserID: "user-b", Side: pool.SideHeads, StakeCents: 100},
		{ID: "bet-c", UserID: "user-c", Side: pool.SideTails, StakeCents: 100},
	})

	_, remaining, err := engine.Settle(ctx, p, outcome.For(p, pool.SideHeads))
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	betA, _ := store.GetBet("bet-a")
	betB, _ := store.GetBet("bet-b")
	betC, _ := store.GetBet("bet-c")
	assert.True(t, betA.Settled)
	assert.False(t, betB.Settled)
	assert.True(t, betC.Settled)

	// retry: só a aposta que falhou é reprocessada
	ledger.failUsers["user-b"] = false
	_, remaining, err = engine.Settle(ctx, p, outcome.For(p, pool.SideHeads))
	require.NoError(t, err)
	assert.Zero(t, remaining)

	assert.Equal(t, 1, ledger.credits["payout:bet-a"])
	assert.Equal(t, int64(150), ledger.balance("user-a"))
	assert.Equal(t, int64(150), ledger.balance("user-b"))
}

func TestSettle_RetryAfterCrashDoesNotDoublePay(t *testing.T) {
	ctx := context.Background()
	store := pool.NewMemory()
	ledger := newFakeLedger()
	engine := New(store, ledger, zap.NewNop())

	p := setupPool(t, store, []pool.Bet{
		{ID: "bet-a", UserID: "user-a", Side: pool.SideHeads, StakeCents: 100},
		{ID: "bet-b", UserID: "user-b", Side: pool.SideTails, StakeCents: 50},
	})

	// Simula crash entre o crédito e a marcação: o crédito já entrou no
	// ledger mas a aposta continua não liquidada
	require.NoError(t, ledger.Credit(ctx, "user-a", 150, "payout:bet-a"))

	_, remaining, err := engine.Settle(ctx, p, outcome.For(p, pool.SideHeads))
	require.NoError(t, err)
	assert.Zero(t, remaining)

	// o retry re-creditou com a mesma referência e o ledger deduplicou
	assert.Equal(t, int64(150), ledger.balance("user-a"))
}

func TestSettle_EmptyPool(t *testing.T) {
	ctx := context.Background()
	store := pool.NewMemory()
	engine := New(store, newFakeLedger(), zap.NewNop())

	p := setupPool(t, store, nil)

	results, remaining, err := engine.Settle(ctx, p, outcome.For(p, pool.SideHeads))
	require.NoError(t, err)
	assert.Zero(t, remaining)
	assert.Empty(t, results)
}
