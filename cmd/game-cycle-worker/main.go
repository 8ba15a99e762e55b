package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	cyclehttp "github.com/radieske/cointoss-platform-poc/internal/game-cycle/http"
	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/ledger"
	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/lifecycle"
	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/outcome"
	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/pool"
	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/publisher"
	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/scheduler"
	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/settlement"
	"github.com/radieske/cointoss-platform-poc/internal/shared/config"
	"github.com/radieske/cointoss-platform-poc/internal/shared/db"
	"github.com/radieske/cointoss-platform-poc/internal/shared/logger"
	"github.com/radieske/cointoss-platform-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("game-cycle-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Conexão com banco de dados Postgres (pools e apostas)
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	store := pool.NewPostgres(pg)

	// Resolver com a regra configurada (cointoss | majority)
	resolver, err := outcome.New(outcome.Rule(cfg.ResolutionRule), nil)
	if err != nil {
		log.Fatal("resolver", zap.Error(err))
	}

	// Ledger de carteiras (wallet-service) consumido no settlement
	wcli := ledger.New(cfg.WalletBaseURL)

	// Métricas do engine
	poolsCreated := prometheus.NewCounter(prometheus.CounterOpts{Name: "cycle_pools_created_total", Help: "pools criados"})
	poolsLocked := prometheus.NewCounter(prometheus.CounterOpts{Name: "cycle_pools_locked_total", Help: "pools travados"})
	poolsSettled := prometheus.NewCounter(prometheus.CounterOpts{Name: "cycle_pools_settled_total", Help: "pools liquidados"})
	betsSettled := prometheus.NewCounter(prometheus.CounterOpts{Name: "cycle_bets_settled_total", Help: "apostas liquidadas"})
	betsFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "cycle_bet_settle_failures_total", Help: "falhas de settlement por aposta"})
	prometheus.MustRegister(poolsCreated, poolsLocked, poolsSettled, betsSettled, betsFailed)

	settler := settlement.New(store, wcli, log)
	settler.OnBetSettled = betsSettled.Inc
	settler.OnBetFailed = betsFailed.Inc

	manager := lifecycle.New(store, resolver, settler, cfg.RoundDuration, log)
	manager.OnPoolCreated = poolsCreated.Inc
	manager.OnPoolLocked = poolsLocked.Inc
	manager.OnPoolSettled = poolsSettled.Inc

	// Publisher Kafka de eventos de settlement (best-effort)
	publ := publisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.TopicPoolSettled, cfg.TopicBetSettled, log)
	defer publ.Close()
	manager.Publ = publ

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)
	defer metricsSrv.Close()

	// Gatilhos administrativos: mesmos contratos das operações agendadas
	adminAPI := cyclehttp.NewServer(log, manager)
	adminSrv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: adminAPI.Router()}
	go func() {
		log.Info("admin api listening", zap.String("addr", adminSrv.Addr))
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("admin srv", zap.Error(err))
		}
	}()
	defer adminSrv.Close()

	log.Info("game-cycle-worker started",
		zap.Duration("roundDuration", cfg.RoundDuration),
		zap.Duration("cycleInterval", cfg.CycleInterval),
		zap.String("resolutionRule", cfg.ResolutionRule),
	)

	// Bloqueia até SIGINT/SIGTERM
	scheduler.New(manager, cfg.CycleInterval, log).Run(ctx)

	log.Info("game-cycle-worker stopped")
}
