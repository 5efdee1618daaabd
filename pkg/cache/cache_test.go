package cache

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func init() {
	retryDelay = time.Millisecond
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Fatal("Get on empty cache should miss")
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get() = %q, %v, %v; want v, true, nil", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key error = %v", err)
	}
}

func TestFileCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want miss", hit, err)
	}
}

func TestFileCache_Clear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get after Clear should miss")
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("Clear left %d entries in %s", len(entries), c.Dir())
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got, want := k.TraceKey("mongo", "t1"), "trace:mongo:t1"; got != want {
		t.Errorf("TraceKey() = %q, want %q", got, want)
	}

	a1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "flowchart"})
	a2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "timeline"})
	a3 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "flowchart", OutputBudget: 10})
	if a1 == a2 || a1 == a3 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
	if a1 != k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "flowchart"}) {
		t.Error("ArtifactKey should be deterministic")
	}
	if !strings.HasPrefix(a1, "artifact:") {
		t.Errorf("ArtifactKey() = %q, want artifact: prefix", a1)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "user:123:")

	if got, want := scoped.TraceKey("file", "t"), "user:123:trace:file:t"; got != want {
		t.Errorf("TraceKey() = %q, want %q", got, want)
	}
	key := scoped.ArtifactKey("h", ArtifactKeyOpts{})
	if !strings.HasPrefix(key, "user:123:artifact:") {
		t.Errorf("ArtifactKey() = %q, want scoped prefix", key)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	calls := 0
	if err := RetryWithBackoff(ctx, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err=%v calls=%d, want nil, 1", err, calls)
	}

	calls = 0
	if err := RetryWithBackoff(ctx, func() error { calls++; return boom }); err != boom || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d, want boom, 1", err, calls)
	}

	calls = 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(boom)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry: err=%v calls=%d, want nil, 2", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error { calls++; return Retryable(boom) })
	if !errors.Is(err, boom) || calls != 3 {
		t.Errorf("exhausted: err=%v calls=%d, want boom, 3", err, calls)
	}
}

func TestRetryWithBackoff_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("RetryWithBackoff() error = %v, want %v", err, context.Canceled)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) || !errors.Is(err, ErrUnavailable) {
		t.Errorf("Retryable(ErrUnavailable) = %v", err)
	}
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), ErrUnavailable.Error())
	}
	if IsRetryable(ErrUnavailable) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

// fakeRedis keeps values in memory and can fail a number of calls first.
type fakeRedis struct {
	data     map[string]string
	ttls     map[string]time.Duration
	failures int
	calls    int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) fail() error {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("dial tcp: connection refused")
	}
	return nil
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if err := f.fail(); err != nil {
		return redis.NewStringResult("", err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if err := f.fail(); err != nil {
		return redis.NewStatusResult("", err)
	}
	f.data[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if err := f.fail(); err != nil {
		return redis.NewIntResult(0, err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Close() error { return nil }

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	c := newRedisCache(fake, "")

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Fatalf("Get on empty cache: hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok := fake.data[DefaultRedisPrefix+"k"]; !ok {
		t.Errorf("key not prefixed: %v", fake.data)
	}
	if fake.ttls[DefaultRedisPrefix+"k"] != time.Minute {
		t.Errorf("ttl = %v, want %v", fake.ttls[DefaultRedisPrefix+"k"], time.Minute)
	}

	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get() = %q, %v, %v; want v, true, nil", data, hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get after Delete should miss")
	}
}

func TestRedisCache_RetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	fake.failures = 2
	c := newRedisCache(fake, "p:")

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error = %v, want success after retries", err)
	}
	if fake.calls != 3 {
		t.Errorf("calls = %d, want 3", fake.calls)
	}

	fake.failures = 5
	_, _, err := c.Get(ctx, "k")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Get() error = %v, want %v", err, ErrUnavailable)
	}
	if IsRetryable(err) {
		t.Error("returned error should not stay wrapped as retryable")
	}
}
