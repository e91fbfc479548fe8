//go:build !integration

package redis

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeRedisClient struct {
	counts  map[string]int64
	expires map[string]time.Duration
	incrErr error
}

func newFakeRedisClient() *fakeRedisClient {
	return &fakeRedisClient{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeRedisClient) Ping(ctx context.Context) error { return nil }

func (f *fakeRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	f.expires[key] = expiration
	return nil
}

func (f *fakeRedisClient) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.counts, k)
	}
	return nil
}

func (f *fakeRedisClient) Close() error { return nil }

func TestRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to the limit then refuses", func(t *testing.T) {
		client := newFakeRedisClient()
		rl := NewRateLimiter(client)
		key := ChatKey(42)

		for i := 0; i < 3; i++ {
			ok, err := rl.Allow(ctx, key, 3, time.Minute)
			if err != nil {
				t.Fatalf("allow %d: %v", i, err)
			}
			if !ok {
				t.Fatalf("call %d should be allowed", i)
			}
		}
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil {
			t.Fatalf("allow over limit: %v", err)
		}
		if ok {
			t.Fatal("4th call over a limit of 3 must be refused")
		}
	})

	t.Run("window is set on the first increment only", func(t *testing.T) {
		client := newFakeRedisClient()
		rl := NewRateLimiter(client)
		key := ChatKey(42)

		_, _ = rl.Allow(ctx, key, 3, time.Minute)
		if client.expires[key] != time.Minute {
			t.Fatalf("expiry not set on first hit: %v", client.expires[key])
		}

		client.expires[key] = 0
		_, _ = rl.Allow(ctx, key, 3, time.Minute)
		if client.expires[key] != 0 {
			t.Fatal("expiry must not be refreshed on later hits")
		}
	})

	t.Run("backend failure is surfaced", func(t *testing.T) {
		client := newFakeRedisClient()
		client.incrErr = errors.New("connection refused")
		rl := NewRateLimiter(client)

		if _, err := rl.Allow(ctx, ChatKey(42), 3, time.Minute); err == nil {
			t.Fatal("want error when the backend is down")
		}
	})
}

func TestChatKey(t *testing.T) {
	if got := ChatKey(12345); got != "flood:12345" {
		t.Fatalf("unexpected key %q", got)
	}
}
