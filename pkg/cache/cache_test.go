package cache

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || !hit || string(data) != "value" {
		t.Fatalf("Get(key) = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("entry should be gone after Delete")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete of missing key should succeed: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should be a miss")
	}

	if err := c.Set(ctx, "forever", []byte("x"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl should not expire")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := os.WriteFile(c.path("key"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "key"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), time.Hour); err != nil {
			t.Fatalf("Set error: %v", err)
		}
	}

	n, err := Clear(ctx, c)
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("cache dir should remain: %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, Config{Backend: BackendNone})
	if err != nil {
		t.Fatalf("Open(none) error: %v", err)
	}
	if _, ok := c.(*NullCache); !ok {
		t.Errorf("Open(none) = %T, want *NullCache", c)
	}

	c, err = Open(ctx, Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open(file) error: %v", err)
	}
	if _, ok := c.(*FileCache); !ok {
		t.Errorf("Open(\"\") = %T, want *FileCache", c)
	}

	if _, err := Open(ctx, Config{Backend: "memcached"}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(memcached) error = %v, want ErrUnknownBackend", err)
	}

	c, err = Open(ctx, Config{Backend: BackendRedis, URL: "not a url"})
	if err == nil {
		t.Error("Open(redis) with bad url should fail")
	}
	if c != nil {
		t.Errorf("failed Open should return a nil Cache, got %T", c)
	}
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("BIGPICTURE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("BIGPICTURE_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, url, "bigpicture-test:")
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if data, hit, err := c.Get(ctx, "k"); err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	if n, err := c.Clear(ctx); err != nil || n < 1 {
		t.Errorf("Clear = %d, %v", n, err)
	}
}

func TestMongoCache(t *testing.T) {
	uri := os.Getenv("BIGPICTURE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("BIGPICTURE_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	c, err := NewMongoCache(ctx, uri, "bigpicture_test")
	if err != nil {
		t.Fatalf("NewMongoCache error: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if data, hit, err := c.Get(ctx, "k"); err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Delete")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	sk1 := k.SnapshotKey("fp1", SnapshotKeyOpts{Scope: "all"})
	sk2 := k.SnapshotKey("fp1", SnapshotKeyOpts{Scope: "local"})
	sk3 := k.SnapshotKey("fp2", SnapshotKeyOpts{Scope: "all"})
	if sk1 == sk2 || sk1 == sk3 {
		t.Error("SnapshotKey should depend on fingerprint and scope")
	}
	if !strings.HasPrefix(sk1, "snapshot:fp1:") {
		t.Errorf("SnapshotKey unexpected: %s", sk1)
	}
	if sk1 != k.SnapshotKey("fp1", SnapshotKeyOpts{Scope: "all"}) {
		t.Error("SnapshotKey should be deterministic")
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", Branches: true})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png", Branches: true})
	ak3 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", Branches: true, Include: []string{"abc"}})
	if ak1 == ak2 || ak1 == ak3 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "repo:123:")

	key := scoped.SnapshotKey("fp", SnapshotKeyOpts{})
	if key != "repo:123:"+inner.SnapshotKey("fp", SnapshotKeyOpts{}) {
		t.Errorf("ScopedKeyer SnapshotKey unexpected: %s", key)
	}

	ak := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "dot"})
	if !strings.HasPrefix(ak, "repo:123:artifact:") {
		t.Errorf("ScopedKeyer ArtifactKey should be prefixed: %s", ak)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.SnapshotKey("fp", SnapshotKeyOpts{})
	if !strings.HasPrefix(key, "prefix:snapshot:fp:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrUnavailable)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("wrapped error should match its cause")
	}

	if IsRetryable(ErrUnknownBackend) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return ErrUnknownBackend
	})
	if err != ErrUnknownBackend {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should retry once: %d", calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(ErrUnavailable)
	})
	if !errors.Is(err, ErrUnavailable) || calls != 3 {
		t.Errorf("exhausted retries: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
