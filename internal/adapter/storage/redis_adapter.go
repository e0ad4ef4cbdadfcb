package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/minhdq/online-store/internal/core/domain"
	"github.com/minhdq/online-store/internal/port"
)

const (
	inventoryKeyPrefix  = "inventory:"
	stockChangedChannel = "stock.changed"

	defaultInventoryTTL = 10 * time.Minute
)

// RedisAdapter is the derived read-side cache plus the stock-change
// invalidation channel. It is never consulted inside a placement
// transaction.
type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAdapter(client *redis.Client, ttl time.Duration) *RedisAdapter {
	if ttl <= 0 {
		ttl = defaultInventoryTTL
	}
	return &RedisAdapter{client: client, ttl: ttl}
}

func (r *RedisAdapter) GetInventoryPage(ctx context.Context, key string) (*domain.InventoryPage, error) {
	data, err := r.client.Get(ctx, inventoryKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var page domain.InventoryPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("unmarshal inventory page: %w", err)
	}
	return &page, nil
}

func (r *RedisAdapter) SetInventoryPage(ctx context.Context, key string, page *domain.InventoryPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal inventory page: %w", err)
	}
	if err := r.client.Set(ctx, inventoryKeyPrefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// NotifyStockChanged drops every cached inventory listing and publishes
// a change event for any other cache collaborator. Invalidation is
// scoped to the inventory key prefix rather than flushing the whole
// keyspace.
func (r *RedisAdapter) NotifyStockChanged(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, inventoryKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan inventory keys: %w", err)
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("delete inventory keys: %w", err)
		}
	}

	if err := r.client.Publish(ctx, stockChangedChannel, time.Now().UTC().Format(time.RFC3339Nano)).Err(); err != nil {
		return fmt.Errorf("publish stock change: %w", err)
	}
	return nil
}
