package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, NewStore(rdb, "acct")
}

func TestGetMissing(t *testing.T) {
	_, store := newTestStore(t)

	if _, err := store.Get(context.Background(), "u1"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Get = %v, want ErrNoSession", err)
	}
}

func TestSetGetClear(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "u1", "token-a", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "token-a" {
		t.Fatalf("Get = %q, want token-a", got)
	}

	if err := store.Clear(ctx, "u1"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := store.Get(ctx, "u1"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Get after Clear = %v, want ErrNoSession", err)
	}
}

func TestSetOverwrites(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "u1", "token-a", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "u1", "token-b", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "token-b" {
		t.Fatalf("Get = %q, want token-b", got)
	}
}

func TestClearIdempotent(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	if err := store.Clear(ctx, "u1"); err != nil {
		t.Fatalf("Clear on missing key failed: %v", err)
	}
	if err := store.Clear(ctx, "u1"); err != nil {
		t.Fatalf("repeated Clear failed: %v", err)
	}
}

func TestSetAppliesTTL(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "u1", "token-a", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if ttl := mr.TTL("acct:rt:u1"); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("TTL = %v, want (0, 1h]", ttl)
	}

	mr.FastForward(2 * time.Hour)

	if _, err := store.Get(ctx, "u1"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Get after expiry = %v, want ErrNoSession", err)
	}
}

func TestKeysAreNamespaced(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "u1", "token-a", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !mr.Exists("acct:rt:u1") {
		t.Fatal("expected key acct:rt:u1")
	}
}

func TestGetTransportFailure(t *testing.T) {
	mr, store := newTestStore(t)

	mr.Close()

	if _, err := store.Get(context.Background(), "u1"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("Get with closed redis = %v, want ErrRedisUnavailable", err)
	}
}

func TestPing(t *testing.T) {
	_, store := newTestStore(t)

	latency, err := store.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if latency < 0 {
		t.Fatalf("latency = %v, want >= 0", latency)
	}
}
