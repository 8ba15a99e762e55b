package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const ChannelSettlementBroadcast = "settlement_broadcast"

type RedisBroadcaster struct {
	r *redis.Client
}

func NewRedisBroadcaster(r *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{r: r}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.r.Publish(ctx, channel, payload).Err()
}

// Envelope padrão enviado pelo canal de broadcast para os frontends
type WSUpdate struct {
	Kind    string      `json:"kind"` // "pool_settled" | "bet_settled"
	Payload interface{} `json:"payload"`
}
