package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/cointoss-platform-poc/internal/betting-service/dto"
)

const currentPoolKey = "pool:current"

// RedisCache guarda a visão do pool OPEN corrente com TTL curto, aliviando
// o Postgres no caminho de leitura mais quente da API.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache cria o cache do pool corrente com TTL configurável
func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// SetCurrent armazena a visão do pool corrente
func (r *RedisCache) SetCurrent(ctx context.Context, p dto.CurrentPoolResponse) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, currentPoolKey, b, r.TTL).Err()
}

// GetCurrent retorna a visão cacheada, ou ok=false em miss
func (r *RedisCache) GetCurrent(ctx context.Context) (dto.CurrentPoolResponse, bool, error) {
	raw, err := r.Client.Get(ctx, currentPoolKey).Bytes()
	if err == redis.Nil {
		return dto.CurrentPoolResponse{}, false, nil
	} else if err != nil {
		return dto.CurrentPoolResponse{}, false, err
	}

	var p dto.CurrentPoolResponse
	if err := json.Unmarshal(raw, &p); err != nil {
		return dto.CurrentPoolResponse{}, false, err
	}
	return p, true, nil
}
