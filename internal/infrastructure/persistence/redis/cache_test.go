package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// unreachableClient 指向无人监听的端口，所有命令立即失败
func unreachableClient() *Client {
	return &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 100 * time.Millisecond,
			MaxRetries:  -1,
		}),
		prefix: "test",
	}
}

func TestBuildKey(t *testing.T) {
	if got := BuildKey("symptom_bot", "event", "abc"); got != "symptom_bot:event:abc" {
		t.Errorf("BuildKey = %q", got)
	}
	if got := BuildKey("", "a", "b"); got != "a:b" {
		t.Errorf("BuildKey without prefix = %q", got)
	}
}

func TestDecodeVector(t *testing.T) {
	vec, err := decodeVector([]byte(`[0.6,0.8]`))
	if err != nil || len(vec) != 2 || vec[1] != 0.8 {
		t.Errorf("decodeVector = %v, %v", vec, err)
	}
	for _, raw := range []string{`[]`, `{"a":1}`, `oops`} {
		if _, err := decodeVector([]byte(raw)); err == nil {
			t.Errorf("decodeVector(%s) should fail", raw)
		}
	}
}

func TestEmbeddingCacheFallsBackWhenRedisDown(t *testing.T) {
	c := unreachableClient()
	defer c.Close()
	cache := NewEmbeddingCache(c, time.Hour)

	calls := 0
	load := func(context.Context) ([]float32, error) {
		calls++
		return []float32{1, 0}, nil
	}
	vec, err := cache.GetOrLoad(context.Background(), "embedding:m:x", load)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 || len(vec) != 2 {
		t.Errorf("calls=%d vec=%v", calls, vec)
	}

	boom := errors.New("embedding down")
	if _, err := cache.GetOrLoad(context.Background(), "embedding:m:y", func(context.Context) ([]float32, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestLimiterAndDeduperSurfaceErrors(t *testing.T) {
	c := unreachableClient()
	defer c.Close()

	if _, err := NewUserLimiter(NewRateLimiter(c), 20, time.Minute).Allow(context.Background(), "U1"); err == nil {
		t.Error("expected limiter error")
	}
	if ok, err := NewUserLimiter(NewRateLimiter(c), 0, time.Minute).Allow(context.Background(), "U1"); err != nil || !ok {
		t.Error("zero limit should always allow")
	}
	if _, err := NewEventDeduper(c, 0).FirstSeen(context.Background(), "evt"); err == nil {
		t.Error("expected dedup error")
	}
}
