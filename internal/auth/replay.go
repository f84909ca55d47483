package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReplayGuard records login token IDs so a token can be exchanged once.
type ReplayGuard interface {
	// Claim returns true the first time id is seen before until.
	Claim(ctx context.Context, id string, until time.Time) (bool, error)
}

// NopReplayGuard accepts every claim; login tokens are then limited only by expiry.
type NopReplayGuard struct{}

func (NopReplayGuard) Claim(context.Context, string, time.Time) (bool, error) {
	return true, nil
}

// RedisReplayGuard stores claimed IDs with SETNX until the token would expire anyway.
type RedisReplayGuard struct {
	client *redis.Client
	prefix string
}

// NewRedisReplayGuard builds a guard on top of an existing client.
func NewRedisReplayGuard(client *redis.Client) *RedisReplayGuard {
	return &RedisReplayGuard{client: client, prefix: "gift-portal:login-token:"}
}

func (g *RedisReplayGuard) Claim(ctx context.Context, id string, until time.Time) (bool, error) {
	ttl := time.Until(until)
	if ttl <= 0 {
		return false, nil
	}
	return g.client.SetNX(ctx, g.prefix+id, 1, ttl).Result()
}
