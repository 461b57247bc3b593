package feedback

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set, skipping")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	cache := NewRedisCache(client)
	key := uuid.NewString()

	if _, ok, err := cache.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := cache.Set(ctx, key, "retroalimentación", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	t.Cleanup(func() { client.Del(ctx, cache.prefix+key) })

	value, ok, err := cache.Get(ctx, key)
	if err != nil || !ok || value != "retroalimentación" {
		t.Errorf("unexpected cache read: %q ok=%v err=%v", value, ok, err)
	}
}

func TestNopCache(t *testing.T) {
	var c NopCache
	if err := c.Set(context.Background(), "k", "v", time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(context.Background(), "k"); ok {
		t.Error("NopCache must never hit")
	}
}
