package publisher

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	skafka "github.com/radieske/cointoss-platform-poc/internal/shared/kafka"
	"github.com/radieske/cointoss-platform-poc/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de settlement do ciclo de jogo.
// Um writer por tópico; a chave da mensagem é o ID da entidade para manter
// a ordenação por partição.
type KafkaPublisher struct {
	poolWriter *skafka.Writer
	betWriter  *skafka.Writer
	log        *zap.Logger
}

// NewKafkaPublisher cria os writers para pool_settled e bet_settled.
func NewKafkaPublisher(brokers, poolTopic, betTopic string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		poolWriter: skafka.NewWriter(brokers, poolTopic),
		betWriter:  skafka.NewWriter(brokers, betTopic),
		log:        log,
	}
}

// PublishPoolSettled emite o evento de pool liquidado.
func (p *KafkaPublisher) PublishPoolSettled(ctx context.Context, e events.PoolSettled) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := skafka.WriteJSON(ctx, p.poolWriter, e.PoolID, value); err != nil {
		p.log.Error("failed to publish pool_settled", zap.String("poolId", e.PoolID), zap.Error(err))
		return err
	}
	p.log.Debug("published pool_settled", zap.String("poolId", e.PoolID))
	return nil
}

// PublishBetSettled emite o evento de aposta liquidada.
func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := skafka.WriteJSON(ctx, p.betWriter, e.BetID, value); err != nil {
		p.log.Error("failed to publish bet_settled", zap.String("betId", e.BetID), zap.Error(err))
		return err
	}
	return nil
}

// Close finaliza os writers.
func (p *KafkaPublisher) Close() error {
	if err := p.poolWriter.Close(); err != nil {
		return err
	}
	return p.betWriter.Close()
}
