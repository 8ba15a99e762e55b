package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Lifecycle é o recorte do manager que o scheduler dispara.
type Lifecycle interface {
	CreateNextPool(ctx context.Context) error
	LockDuePools(ctx context.Context) error
	SettleDuePools(ctx context.Context) error
}

// TickFactory cria a fonte de ticks de um gatilho. O default embrulha
// time.Ticker; testes injetam canais controlados manualmente.
type TickFactory func(d time.Duration) (<-chan time.Time, func())

func defaultTicks(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Scheduler dispara os gatilhos periódicos do ciclo de jogo: criação de
// pool e lock+settle, em timers independentes que podem se sobrepor entre
// si e com gatilhos administrativos. Nenhuma exclusão mútua acontece aqui;
// a segurança vem das escritas condicionais no store.
type Scheduler struct {
	lc       Lifecycle
	interval time.Duration
	log      *zap.Logger

	// Ticks injetável para testes
	Ticks TickFactory
}

// New cria o scheduler com o intervalo configurado.
func New(lc Lifecycle, interval time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{lc: lc, interval: interval, log: log, Ticks: defaultTicks}
}

// Run dispara os dois gatilhos em goroutines e bloqueia até o contexto ser
// cancelado. Cada gatilho roda uma vez imediatamente na partida.
func (s *Scheduler) Run(ctx context.Context) {
	createTicks, stopCreate := s.Ticks(s.interval)
	cycleTicks, stopCycle := s.Ticks(s.interval)
	defer stopCreate()
	defer stopCycle()

	go s.loop(ctx, "pool-creation", createTicks, func() {
		if err := s.lc.CreateNextPool(ctx); err != nil {
			s.log.Warn("pool creation tick failed", zap.Error(err))
		}
	})

	// lock antes de settle: um pool precisa chegar a LOCKED antes de ser
	// elegível para settlement no mesmo ciclo ou em um posterior
	go s.loop(ctx, "lock-and-settle", cycleTicks, func() {
		if err := s.lc.LockDuePools(ctx); err != nil {
			s.log.Warn("lock tick failed", zap.Error(err))
		}
		if err := s.lc.SettleDuePools(ctx); err != nil {
			s.log.Warn("settle tick failed", zap.Error(err))
		}
	})

	<-ctx.Done()
}

func (s *Scheduler) loop(ctx context.Context, name string, ticks <-chan time.Time, fire func()) {
	s.log.Info("scheduler trigger started",
		zap.String("trigger", name),
		zap.Duration("interval", s.interval),
	)

	// primeira execução imediata
	fire()

	for {
		select {
		case <-ticks:
			fire()
		case <-ctx.Done():
			return
		}
	}
}
