package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	bcache "github.com/radieske/cointoss-platform-poc/internal/betting-service/cache"
	bhttp "github.com/radieske/cointoss-platform-poc/internal/betting-service/http"
	brepo "github.com/radieske/cointoss-platform-poc/internal/betting-service/repo"
	"github.com/radieske/cointoss-platform-poc/internal/betting-service/wallet"
	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/pool"
	sharedcache "github.com/radieske/cointoss-platform-poc/internal/shared/cache"
	"github.com/radieske/cointoss-platform-poc/internal/shared/config"
	"github.com/radieske/cointoss-platform-poc/internal/shared/db"
	"github.com/radieske/cointoss-platform-poc/internal/shared/logger"
	"github.com/radieske/cointoss-platform-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("betting-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Conexão com Postgres (pools e apostas)
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis para cache do pool corrente
	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	pools := pool.NewPostgres(pg)
	bets := brepo.NewPostgres(pg)
	wcli := wallet.New(cfg.WalletBaseURL)
	poolCache := bcache.NewRedisCache(redisClient, 2*time.Second)

	api := bhttp.NewServer(log, pools, bets, wcli, poolCache)

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)
	defer metricsSrv.Close()

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort, // ex: 8083
		Handler: api.Router(),
	}

	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
