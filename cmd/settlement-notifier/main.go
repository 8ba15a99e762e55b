package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/cointoss-platform-poc/internal/settlement-notifier/consumer"
	"github.com/radieske/cointoss-platform-poc/internal/settlement-notifier/pubsub"
	sharedcache "github.com/radieske/cointoss-platform-poc/internal/shared/cache"
	"github.com/radieske/cointoss-platform-poc/internal/shared/config"
	skafka "github.com/radieske/cointoss-platform-poc/internal/shared/kafka"
	"github.com/radieske/cointoss-platform-poc/internal/shared/logger"
	"github.com/radieske/cointoss-platform-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("settlement-notifier", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis para broadcast dos eventos aos frontends
	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Consumers Kafka dos dois tópicos de settlement
	poolReader := skafka.NewReader(cfg.KafkaBrokers, cfg.TopicPoolSettled, "settlement-notifier")
	defer poolReader.Close()
	betReader := skafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetSettled, "settlement-notifier")
	defer betReader.Close()

	var dlqWriter *skafka.Writer
	if cfg.TopicBetSettledDLQ != "" {
		dlqWriter = skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettledDLQ)
		defer dlqWriter.Close()
	}

	// Métricas do notifier
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "notifier_messages_consumed_total", Help: "mensagens consumidas"})
	relayed := prometheus.NewCounter(prometheus.CounterOpts{Name: "notifier_messages_relayed_total", Help: "mensagens rebroadcastadas"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "notifier_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, relayed, errorsBy)

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	defer metricsSrv.Close()

	notifier := &consumer.Notifier{
		Log:         log,
		PoolReader:  poolReader,
		BetReader:   betReader,
		Broadcaster: pubsub.NewRedisBroadcaster(redisClient),
		Channel:     cfg.RedisPubSubChannel,
		DLQWriter:   dlqWriter,
		OnConsumed:  consumed.Inc,
		OnRelayed:   relayed.Inc,
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	log.Info("settlement-notifier started",
		zap.String("consume", cfg.TopicPoolSettled+","+cfg.TopicBetSettled),
		zap.String("channel", cfg.RedisPubSubChannel),
	)

	if err := notifier.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal("notifier", zap.Error(err))
	}
}
