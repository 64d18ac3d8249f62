package cron

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

type redisLockStore struct {
	raw *goredis.Client
}

func (s *redisLockStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return s.raw.SetNX(ctx, key, value, ttl).Result()
}

func (s *redisLockStore) Get(ctx context.Context, key string) (string, error) {
	return s.raw.Get(ctx, key).Result()
}

func (s *redisLockStore) Del(ctx context.Context, keys ...string) error {
	return s.raw.Del(ctx, keys...).Err()
}

func newLockStore(t *testing.T) (*redisLockStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return &redisLockStore{raw: raw}, srv
}

func TestRedisLockMutualExclusion(t *testing.T) {
	store, _ := newLockStore(t)
	ctx := context.Background()

	first, err := NewRedisLock(store, "gr:lock:cron", time.Minute)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}
	second, err := NewRedisLock(store, "gr:lock:cron", time.Minute)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}

	ok, err := first.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to win: ok=%v err=%v", ok, err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatalf("expected second acquire to lose while lock held")
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected acquire after release: ok=%v err=%v", ok, err)
	}
}

func TestRedisLockReleaseOnlyOwn(t *testing.T) {
	store, srv := newLockStore(t)
	ctx := context.Background()

	lock, err := NewRedisLock(store, "gr:lock:cron", time.Minute)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatalf("acquire failed")
	}

	// another owner replaces the value after the TTL fires
	srv.FastForward(2 * time.Minute)
	if err := store.raw.Set(ctx, "gr:lock:cron", "someone-else", 0).Err(); err != nil {
		t.Fatalf("seed foreign owner: %v", err)
	}

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	value, err := store.Get(ctx, "gr:lock:cron")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "someone-else" {
		t.Fatalf("release must not delete a foreign lock, got %q", value)
	}
}

func TestRedisLockTTLExpires(t *testing.T) {
	store, srv := newLockStore(t)
	ctx := context.Background()

	lock, err := NewRedisLock(store, "gr:lock:cron", time.Second)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatalf("acquire failed")
	}
	srv.FastForward(2 * time.Second)

	other, err := NewRedisLock(store, "gr:lock:cron", time.Second)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}
	if ok, _ := other.Acquire(ctx); !ok {
		t.Fatalf("expected lock to be reacquirable after TTL")
	}
}
