package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/outcome"
	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/pool"
	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/settlement"
	"github.com/radieske/cointoss-platform-poc/pkg/contracts/events"
)

// Publisher publica eventos de settlement. Perda de evento nunca bloqueia
// nem corrompe o settlement: publicação é best-effort.
type Publisher interface {
	PublishPoolSettled(ctx context.Context, e events.PoolSettled) error
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
}

// Manager é o dono das transições de estado dos pools. As três operações
// são idempotentes e seguras sob invocação concorrente (scheduler e gatilho
// administrativo podem se sobrepor): toda transição é um compare-and-set no
// store, nunca uma suposição de chamador único.
type Manager struct {
	store    pool.Store
	resolver *outcome.Resolver
	settler  *settlement.Engine
	round    time.Duration
	log      *zap.Logger

	// Clock injetável para testes; default time.Now
	Clock func() time.Time
	// Publ é opcional
	Publ Publisher

	OnPoolCreated func() // métricas (counter++)
	OnPoolLocked  func() // métricas
	OnPoolSettled func() // métricas
}

// New cria o manager do ciclo de jogo. round é a duração de cada rodada:
// o pool trava após um round e liquida após dois.
func New(store pool.Store, resolver *outcome.Resolver, settler *settlement.Engine, round time.Duration, log *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		resolver: resolver,
		settler:  settler,
		round:    round,
		log:      log,
		Clock:    time.Now,
	}
}

// CreateNextPool cria um pool novo se nenhum estiver OPEN. No-op silencioso
// quando já existe pool aberto, inclusive quando a corrida é perdida na
// inserção.
func (m *Manager) CreateNextPool(ctx context.Context) error {
	_, err := m.store.FindOpenPool(ctx)
	if err == nil {
		m.log.Debug("open pool already exists, skipping creation")
		return nil
	}
	if err != pool.ErrNotFound {
		return fmt.Errorf("find open pool: %w", err)
	}

	now := m.Clock().UTC()
	p := pool.Pool{
		ID:        uuid.NewString(),
		OpensAt:   now,
		LocksAt:   now.Add(m.round),
		SettlesAt: now.Add(2 * m.round),
	}

	created, err := m.store.CreatePool(ctx, p)
	if err == pool.ErrOpenPoolExists {
		m.log.Debug("lost pool creation race, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}

	m.log.Info("pool created",
		zap.String("poolId", created.ID),
		zap.Time("locksAt", created.LocksAt),
		zap.Time("settlesAt", created.SettlesAt),
	)
	if m.OnPoolCreated != nil {
		m.OnPoolCreated()
	}
	return nil
}

// LockDuePools transiciona para LOCKED todo pool OPEN cujo horário de lock
// passou. Guard miss (outra invocação travou primeiro) é pulado, não
// re-tentado nesta chamada.
func (m *Manager) LockDuePools(ctx context.Context) error {
	due, err := m.store.FindDueForLock(ctx, m.Clock())
	if err != nil {
		return fmt.Errorf("find due for lock: %w", err)
	}

	for _, p := range due {
		err := m.store.TransitionState(ctx, p.ID, pool.StateOpen, pool.StateLocked)
		if err == pool.ErrStaleState {
			m.log.Debug("pool already transitioned, skipping lock", zap.String("poolId", p.ID))
			continue
		}
		if err != nil {
			// falha de repositório: aborta o lote; o próximo tick re-tenta
			return fmt.Errorf("lock pool %s: %w", p.ID, err)
		}
		m.log.Info("pool locked", zap.String("poolId", p.ID))
		if m.OnPoolLocked != nil {
			m.OnPoolLocked()
		}
	}
	return nil
}

// SettleDuePools resolve e liquida todo pool LOCKED cujo horário de settle
// passou. Falha em um pool não bloqueia os demais; um pool com apostas
// pendentes permanece LOCKED e volta no próximo ciclo.
func (m *Manager) SettleDuePools(ctx context.Context) error {
	due, err := m.store.FindDueForSettle(ctx, m.Clock())
	if err != nil {
		return fmt.Errorf("find due for settle: %w", err)
	}

	for _, p := range due {
		if err := m.settlePool(ctx, p); err != nil {
			m.log.Error("settle pool failed", zap.String("poolId", p.ID), zap.Error(err))
			continue
		}
	}
	return nil
}

func (m *Manager) settlePool(ctx context.Context, p pool.Pool) error {
	// Violação de invariante é erro de chamador, nunca coagida
	if p.State != pool.StateLocked {
		return fmt.Errorf("cannot settle pool %s in state %s", p.ID, p.State)
	}

	// Reusa o sorteio registrado em retry; sorteia uma única vez por pool
	side, err := m.resolveSide(ctx, p)
	if err != nil {
		return err
	}

	out := outcome.For(p, side)
	results, remaining, err := m.settler.Settle(ctx, p, out)
	if err != nil {
		return fmt.Errorf("settle bets: %w", err)
	}

	m.publishBets(ctx, p, results)

	if remaining > 0 {
		// pool fica LOCKED; somente as apostas que falharam voltam no retry
		m.log.Warn("pool partially settled",
			zap.String("poolId", p.ID),
			zap.Int("remaining", remaining),
		)
		return nil
	}

	err = m.store.TransitionState(ctx, p.ID, pool.StateLocked, pool.StateSettled)
	if err == pool.ErrStaleState {
		// invocação concorrente selou o pool primeiro
		return nil
	}
	if err != nil {
		return fmt.Errorf("seal pool: %w", err)
	}

	m.log.Info("pool settled",
		zap.String("poolId", p.ID),
		zap.String("winningSide", string(side)),
		zap.Int("bets", len(results)),
	)
	if m.OnPoolSettled != nil {
		m.OnPoolSettled()
	}

	if m.Publ != nil {
		_ = m.Publ.PublishPoolSettled(ctx, events.PoolSettled{
			PoolID:      p.ID,
			WinningSide: string(side),
			HeadsCents:  p.HeadsCents,
			TailsCents:  p.TailsCents,
			SettledBets: len(results),
			Ts:          m.Clock(),
		})
	}
	return nil
}

// resolveSide retorna o lado vencedor do pool, sorteando e registrando um
// novo resultado apenas quando ainda não há sorteio gravado.
func (m *Manager) resolveSide(ctx context.Context, p pool.Pool) (pool.Side, error) {
	if p.WinningSide != nil {
		return *p.WinningSide, nil
	}

	drawn, err := m.resolver.Resolve(ctx, p)
	if err != nil {
		return "", fmt.Errorf("resolve outcome: %w", err)
	}

	// RecordOutcome devolve o lado efetivo: o recém-gravado ou um que outra
	// invocação registrou primeiro
	recorded, err := m.store.RecordOutcome(ctx, p.ID, drawn)
	if err != nil {
		return "", fmt.Errorf("record outcome: %w", err)
	}
	return recorded, nil
}

func (m *Manager) publishBets(ctx context.Context, p pool.Pool, results []settlement.Result) {
	if m.Publ == nil {
		return
	}
	for _, r := range results {
		_ = m.Publ.PublishBetSettled(ctx, events.BetSettled{
			BetID:       r.Bet.ID,
			PoolID:      p.ID,
			UserID:      r.Bet.UserID,
			Side:        string(r.Bet.Side),
			StakeCents:  r.Bet.StakeCents,
			PayoutCents: r.PayoutCents,
			Won:         r.Won,
			Ts:          m.Clock(),
		})
	}
}
