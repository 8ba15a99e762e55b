package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/cointoss-platform-poc/internal/settlement-notifier/pubsub"
	skafka "github.com/radieske/cointoss-platform-poc/internal/shared/kafka"
	"github.com/radieske/cointoss-platform-poc/pkg/contracts/events"
)

// Notifier consome eventos de settlement do Kafka e rebroadcasta via Redis
// pubsub para os frontends. Mensagens indecifráveis vão para a DLQ.
type Notifier struct {
	Log         *zap.Logger
	PoolReader  *kafka.Reader
	BetReader   *kafka.Reader
	Broadcaster *pubsub.RedisBroadcaster
	Channel     string
	DLQWriter   *kafka.Writer // opcional

	OnConsumed func()       // métricas (counter++)
	OnRelayed  func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run inicia os loops de consumo dos dois tópicos e bloqueia até o contexto
// ser cancelado.
func (n *Notifier) Run(ctx context.Context) error {
	go n.consume(ctx, n.PoolReader, n.relayPoolSettled)
	go n.consume(ctx, n.BetReader, n.relayBetSettled)
	<-ctx.Done()
	return ctx.Err()
}

func (n *Notifier) consume(ctx context.Context, reader *kafka.Reader, relay func(context.Context, []byte) error) {
	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return // encerra se o contexto for cancelado
			}
			n.Log.Warn("kafka read failed", zap.Error(err))
			if n.OnError != nil {
				n.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if n.OnConsumed != nil {
			n.OnConsumed()
		}

		if err := relay(ctx, m.Value); err != nil {
			n.Log.Warn("relay failed", zap.Error(err))
			if n.OnError != nil {
				n.OnError("relay")
			}
		}
	}
}

func (n *Notifier) relayPoolSettled(ctx context.Context, value []byte) error {
	var ev events.PoolSettled
	if err := json.Unmarshal(value, &ev); err != nil {
		n.deadLetter(ctx, value)
		return err
	}
	return n.broadcast(ctx, pubsub.WSUpdate{Kind: "pool_settled", Payload: ev})
}

func (n *Notifier) relayBetSettled(ctx context.Context, value []byte) error {
	var ev events.BetSettled
	if err := json.Unmarshal(value, &ev); err != nil {
		n.deadLetter(ctx, value)
		return err
	}
	return n.broadcast(ctx, pubsub.WSUpdate{Kind: "bet_settled", Payload: ev})
}

func (n *Notifier) broadcast(ctx context.Context, update pubsub.WSUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}
	if err := n.Broadcaster.Publish(ctx, n.Channel, payload); err != nil {
		return err
	}
	if n.OnRelayed != nil {
		n.OnRelayed()
	}
	return nil
}

func (n *Notifier) deadLetter(ctx context.Context, value []byte) {
	if n.DLQWriter == nil {
		return
	}
	if err := skafka.WriteJSON(ctx, n.DLQWriter, "", value); err != nil {
		n.Log.Warn("dlq write failed", zap.Error(err))
	}
}
