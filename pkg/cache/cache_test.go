package cache

import (
	"context"
	"errors"
	"path/filepath"
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

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	base := AnalysisKeyOpts{Metrics: []string{"DL"}, Loader: "max_len=40"}
	key := k.AnalysisKey("hash123", base)
	if !strings.HasPrefix(key, "analysis:") || len(key) != len("analysis:")+64 {
		t.Errorf("AnalysisKey unexpected: %s", key)
	}
	if key != k.AnalysisKey("hash123", base) {
		t.Error("AnalysisKey should be deterministic")
	}

	// Every option takes part in the key
	variants := []AnalysisKeyOpts{
		{Metrics: []string{"ICM"}, Loader: "max_len=40"},
		{Metrics: []string{"DL"}, Loader: "max_len=40", CountRoot: true},
		{Metrics: []string{"DL"}, Loader: "max_len=40", CountDirection: true},
		{Metrics: []string{"DL"}, Loader: "max_len=40", Tokenwise: true},
		{Metrics: []string{"DL"}, Loader: "max_len=30"},
		{Metrics: []string{"DL"}, Loader: "max_len=40", FrequencyHash: "abc"},
	}
	for _, opts := range variants {
		if k.AnalysisKey("hash123", opts) == key {
			t.Errorf("options %+v should produce a different key", opts)
		}
	}
	if k.AnalysisKey("hash456", base) == key {
		t.Error("Different content should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "v1.0.0:")

	opts := AnalysisKeyOpts{Metrics: []string{"DL"}}
	key := scoped.AnalysisKey("hash", opts)
	if key != "v1.0.0:"+inner.AnalysisKey("hash", opts) {
		t.Errorf("ScopedKeyer AnalysisKey unexpected: %s", key)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.AnalysisKey("hash", AnalysisKeyOpts{})
	if !strings.HasPrefix(key, "prefix:analysis:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || !hit || string(data) != "value" {
		t.Errorf("Get(key) = %q, %v, %v", data, hit, err)
	}

	// Expired entries are misses
	if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry should be a miss")
	}

	if err := c.Set(ctx, "", []byte("x"), 0); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("Set with empty key: %v", err)
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete twice: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("deleted entry should be a miss")
	}
}

func TestFileCacheClear(t *testing.T) {
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
	if err != nil || n != 3 {
		t.Errorf("Clear() = %d, %v", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
	if c.Dir() == "" {
		t.Error("Dir() should not be empty")
	}
}
