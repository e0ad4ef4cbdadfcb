package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhdq/online-store/internal/core/domain"
	"github.com/minhdq/online-store/internal/port"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisAdapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisAdapter(client, ttl), mr
}

func testPage() *domain.InventoryPage {
	return &domain.InventoryPage{
		Items: []domain.InventoryItem{
			{ProductID: 1, Name: "keyboard", Price: decimal.RequireFromString("19.99"), StockQuantity: 5},
		},
		Page:    1,
		PerPage: 10,
		Total:   1,
	}
}

func TestInventoryPage_RoundTrip(t *testing.T) {
	adapter, mr := setupTestRedis(t, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, adapter.SetInventoryPage(ctx, "page_1", testPage()))

	got, err := adapter.GetInventoryPage(ctx, "page_1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Total)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(1), got.Items[0].ProductID)
	assert.True(t, got.Items[0].Price.Equal(decimal.RequireFromString("19.99")))

	// Pages expire on their own even if invalidation never fires.
	ttl := mr.TTL("inventory:page_1")
	assert.Equal(t, 10*time.Minute, ttl)
}

func TestGetInventoryPage_Miss(t *testing.T) {
	adapter, _ := setupTestRedis(t, 10*time.Minute)

	_, err := adapter.GetInventoryPage(context.Background(), "missing")
	require.ErrorIs(t, err, port.ErrCacheMiss)
}

func TestNotifyStockChanged_DropsOnlyInventoryKeys(t *testing.T) {
	adapter, mr := setupTestRedis(t, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, adapter.SetInventoryPage(ctx, "page_1", testPage()))
	require.NoError(t, adapter.SetInventoryPage(ctx, "page_2", testPage()))
	mr.Set("session:abc", "keep-me")

	require.NoError(t, adapter.NotifyStockChanged(ctx))

	assert.False(t, mr.Exists("inventory:page_1"))
	assert.False(t, mr.Exists("inventory:page_2"))
	assert.True(t, mr.Exists("session:abc"))

	_, err := adapter.GetInventoryPage(ctx, "page_1")
	assert.ErrorIs(t, err, port.ErrCacheMiss)
}

func TestNotifyStockChanged_EmptyCache(t *testing.T) {
	adapter, _ := setupTestRedis(t, 10*time.Minute)

	// Nothing cached yet; the notification must still succeed.
	require.NoError(t, adapter.NotifyStockChanged(context.Background()))
}
