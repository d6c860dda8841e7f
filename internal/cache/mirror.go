package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis keys written by RedisMirror.
const (
	PaymentKey      = "bithub:status:payment"
	TransactionsKey = "bithub:status:transactions"
	RepositoriesKey = "bithub:status:repositories"
)

type redisSetter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisMirror copies every snapshot into Redis so other processes can serve
// the status data.
type RedisMirror struct {
	rdb redisSetter
	ttl time.Duration
}

// NewRedisMirror keeps mirrored keys for ttl; zero keeps them forever.
func NewRedisMirror(rdb *redis.Client, ttl time.Duration) *RedisMirror {
	return &RedisMirror{rdb: rdb, ttl: ttl}
}

func (r *RedisMirror) Publish(ctx context.Context, snap Snapshot) error {
	values := []struct {
		key   string
		value any
	}{
		{PaymentKey, snap.Payment.View()},
		{TransactionsKey, snap.Transactions},
		{RepositoriesKey, snap.Repositories},
	}

	for _, v := range values {
		encoded, err := json.Marshal(v.value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", v.key, err)
		}
		if err := r.rdb.Set(ctx, v.key, encoded, r.ttl).Err(); err != nil {
			return fmt.Errorf("write %s: %w", v.key, err)
		}
	}

	return nil
}
