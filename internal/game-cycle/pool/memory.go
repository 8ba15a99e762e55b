package pool

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory implementa Store em memória, com as mesmas garantias condicionais
// do Postgres. Usado nos testes do engine.
type Memory struct {
	mu    sync.Mutex
	pools map[string]Pool
	bets  map[string]Bet
}

// NewMemory cria o store em memória vazio.
func NewMemory() *Memory {
	return &Memory{
		pools: make(map[string]Pool),
		bets:  make(map[string]Bet),
	}
}

func (m *Memory) FindOpenPool(ctx context.Context) (Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.pools {
		if p.State == StateOpen {
			return p, nil
		}
	}
	return Pool{}, ErrNotFound
}

func (m *Memory) FindDueForLock(ctx context.Context, now time.Time) ([]Pool, error) {
	return m.findDue(StateOpen, func(p Pool) bool { return !p.LocksAt.After(now) })
}

func (m *Memory) FindDueForSettle(ctx context.Context, now time.Time) ([]Pool, error) {
	return m.findDue(StateLocked, func(p Pool) bool { return !p.SettlesAt.After(now) })
}

func (m *Memory) findDue(state State, due func(Pool) bool) ([]Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Pool
	for _, p := range m.pools {
		if p.State == state && due(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) CreatePool(ctx context.Context, p Pool) (Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.pools {
		if existing.State == StateOpen {
			return Pool{}, ErrOpenPoolExists
		}
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.State = StateOpen
	p.Version = 1
	p.CreatedAt = now
	p.UpdatedAt = now
	m.pools[p.ID] = p
	return p, nil
}

func (m *Memory) TransitionState(ctx context.Context, poolID string, from, to State) error {
	if !ValidTransition(from, to) {
		return ErrInvalidTransition
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pools[poolID]
	if !ok || p.State != from {
		return ErrStaleState
	}
	p.State = to
	p.Version++
	p.UpdatedAt = time.Now().UTC()
	m.pools[poolID] = p
	return nil
}

func (m *Memory) RecordOutcome(ctx context.Context, poolID string, side Side) (Side, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pools[poolID]
	if !ok {
		return "", ErrNotFound
	}
	if p.WinningSide != nil {
		return *p.WinningSide, nil
	}
	if p.State != StateLocked {
		return "", ErrStaleState
	}
	p.WinningSide = &side
	p.Version++
	p.UpdatedAt = time.Now().UTC()
	m.pools[poolID] = p
	return side, nil
}

func (m *Memory) FindUnsettledBets(ctx context.Context, poolID string) ([]Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Bet
	for _, b := range m.bets {
		if b.PoolID == poolID && !b.Settled {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *Memory) MarkBetSettled(ctx context.Context, betID string, payoutCents int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bets[betID]
	if !ok {
		return ErrNotFound
	}
	if b.Settled {
		return ErrAlreadySettled
	}
	now := time.Now().UTC()
	b.Settled = true
	b.PayoutCents = &payoutCents
	b.SettledAt = &now
	m.bets[betID] = b
	return nil
}

func (m *Memory) CreateBet(ctx context.Context, b Bet) (Bet, error) {
	if b.StakeCents <= 0 {
		return Bet{}, ErrInvalidStake
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pools[b.PoolID]
	if !ok {
		return Bet{}, ErrNotFound
	}
	if p.State != StateOpen {
		return Bet{}, ErrPoolNotOpen
	}

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Settled = false
	b.CreatedAt = time.Now().UTC()
	m.bets[b.ID] = b

	if b.Side == SideHeads {
		p.HeadsCents += b.StakeCents
	} else {
		p.TailsCents += b.StakeCents
	}
	p.Version++
	m.pools[b.PoolID] = p
	return b, nil
}

// GetPool retorna uma cópia do pool; auxiliar de teste.
func (m *Memory) GetPool(poolID string) (Pool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pools[poolID]
	return p, ok
}

// GetBet retorna uma cópia da aposta; auxiliar de teste.
func (m *Memory) GetBet(betID string) (Bet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bets[betID]
	return b, ok
}
