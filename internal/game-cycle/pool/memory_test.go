package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemoryPool(t *testing.T) (*Memory, Pool) {
	t.Helper()
	m := NewMemory()
	now := time.Now().UTC()
	p, err := m.CreatePool(context.Background(), Pool{
		OpensAt: now, LocksAt: now.Add(time.Minute), SettlesAt: now.Add(2 * time.Minute),
	})
	require.NoError(t, err)
	return m, p
}

func TestMemoryCreateBet_RejectsNonPositiveStake(t *testing.T) {
	m, p := openMemoryPool(t)

	for _, stake := range []int64{0, -1, -100} {
		_, err := m.CreateBet(context.Background(), Bet{
			PoolID: p.ID, UserID: "user-a", Side: SideHeads, StakeCents: stake,
		})
		assert.ErrorIs(t, err, ErrInvalidStake, "stake %d", stake)
	}

	// nada entrou no total do lado
	got, ok := m.GetPool(p.ID)
	require.True(t, ok)
	assert.Zero(t, got.HeadsCents)
}

func TestMemoryTransitionState_RejectsReversal(t *testing.T) {
	m, p := openMemoryPool(t)
	ctx := context.Background()

	require.NoError(t, m.TransitionState(ctx, p.ID, StateOpen, StateLocked))
	require.NoError(t, m.TransitionState(ctx, p.ID, StateLocked, StateSettled))

	assert.ErrorIs(t, m.TransitionState(ctx, p.ID, StateSettled, StateOpen), ErrInvalidTransition)

	got, ok := m.GetPool(p.ID)
	require.True(t, ok)
	assert.Equal(t, StateSettled, got.State)
}
