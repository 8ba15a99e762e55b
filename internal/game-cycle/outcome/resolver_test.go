package outcome

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/pool"
)

// fixedDrawer devolve sempre o mesmo lado.
type fixedDrawer struct{ side pool.Side }

func (d fixedDrawer) Draw(ctx context.Context) (pool.Side, error) { return d.side, nil }

func TestNew_UnknownRule(t *testing.T) {
	_, err := New("roulette", nil)
	assert.Error(t, err)
}

func TestResolve_CoinTossIgnoresStakes(t *testing.T) {
	r, err := New(RuleCoinToss, fixedDrawer{side: pool.SideTails})
	require.NoError(t, err)

	// TAILS sai mesmo com todo o dinheiro em HEADS
	side, err := r.Resolve(context.Background(), pool.Pool{HeadsCents: 100_000, TailsCents: 0})
	require.NoError(t, err)
	assert.Equal(t, pool.SideTails, side)
}

func TestResolve_MajorityPicksLargerSide(t *testing.T) {
	r, err := New(RuleMajority, fixedDrawer{side: pool.SideHeads})
	require.NoError(t, err)

	side, err := r.Resolve(context.Background(), pool.Pool{HeadsCents: 100, TailsCents: 500})
	require.NoError(t, err)
	assert.Equal(t, pool.SideTails, side)

	side, err = r.Resolve(context.Background(), pool.Pool{HeadsCents: 500, TailsCents: 100})
	require.NoError(t, err)
	assert.Equal(t, pool.SideHeads, side)
}

func TestResolve_MajorityTieFallsToCoin(t *testing.T) {
	r, err := New(RuleMajority, fixedDrawer{side: pool.SideTails})
	require.NoError(t, err)

	side, err := r.Resolve(context.Background(), pool.Pool{HeadsCents: 300, TailsCents: 300})
	require.NoError(t, err)
	assert.Equal(t, pool.SideTails, side)
}

func TestPayoutFor_RatioAndFloor(t *testing.T) {
	out := Outcome{WinningSide: pool.SideHeads, WinningCents: 150, LosingCents: 50}

	// stake + stake*losing/winning, truncado para baixo
	assert.Equal(t, int64(133), out.PayoutFor(100))
	assert.Equal(t, int64(66), out.PayoutFor(50))
}

func TestPayoutFor_SimpleScenario(t *testing.T) {
	// A aposta 100 em HEADS, B aposta 50 em TAILS, sai HEADS
	p := pool.Pool{HeadsCents: 100, TailsCents: 50}
	out := For(p, pool.SideHeads)

	assert.Equal(t, int64(150), out.PayoutFor(100))
}

func TestPayoutFor_LargeTotalsDoNotOverflow(t *testing.T) {
	// stake*losing estoura int64 se multiplicado direto; o resultado não
	const huge = int64(3_000_000_000_000_000_000)
	out := Outcome{WinningSide: pool.SideHeads, WinningCents: huge, LosingCents: huge}

	assert.Equal(t, 2*huge, out.PayoutFor(huge))
	assert.Equal(t, int64(2_000_000_000_000_000_000)*2, out.PayoutFor(2_000_000_000_000_000_000))
}

func TestPayoutFor_EmptyWinningSide(t *testing.T) {
	out := Outcome{WinningSide: pool.SideTails, WinningCents: 0, LosingCents: 500}
	assert.Equal(t, int64(0), out.PayoutFor(100))
}

func TestCryptoDrawer_ReturnsValidSide(t *testing.T) {
	side, err := CryptoDrawer{}.Draw(context.Background())
	require.NoError(t, err)
	assert.True(t, side.Valid())
}
