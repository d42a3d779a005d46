package redis

import (
	"context"
	"testing"
	"time"

	"aiornot-quiz-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingStore struct {
	*memory.ObjectStore
	lists int
}

func (s *countingStore) List(ctx context.Context, prefix string) ([]string, error) {
	s.lists++
	return s.ObjectStore.List(ctx, prefix)
}

func TestAssetIndexCachesListings(t *testing.T) {
	mr, client := newClient(t)
	backing := &countingStore{ObjectStore: memory.NewObjectStore("https://cdn.test")}
	index := NewAssetIndex(backing, client, time.Minute)
	ctx := context.Background()

	_ = backing.ObjectStore.Put(ctx, "generated/cat/a.png", []byte("a"), "image/png")
	_ = backing.ObjectStore.Put(ctx, "generated/cat/b.png", []byte("b"), "image/png")

	keys, err := index.List(ctx, "generated/cat/")
	if err != nil || len(keys) != 2 {
		t.Fatalf("list: keys=%v err=%v", keys, err)
	}
	if !mr.Exists("assets:generated/cat/") {
		t.Fatalf("expected listing cached in redis")
	}
	keys, _ = index.List(ctx, "generated/cat/")
	if backing.lists != 1 || len(keys) != 2 || keys[0] != "generated/cat/a.png" {
		t.Fatalf("expected cache hit, lists=%d keys=%v", backing.lists, keys)
	}

	if err := index.Put(ctx, "generated/cat/c.png", []byte("c"), "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if mr.Exists("assets:generated/cat/") {
		t.Fatalf("put must invalidate the listing")
	}
	keys, _ = index.List(ctx, "generated/cat/")
	if backing.lists != 2 || len(keys) != 3 {
		t.Fatalf("expected refreshed listing, lists=%d keys=%v", backing.lists, keys)
	}
	if got := index.PublicURL("generated/cat/c.png"); got != "https://cdn.test/generated/cat/c.png" {
		t.Fatalf("unexpected url %s", got)
	}
}

// racingStore runs onList after reading the keys, simulating a writer that lands mid-listing.
type racingStore struct {
	*memory.ObjectStore
	onList func()
}

func (s *racingStore) List(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.ObjectStore.List(ctx, prefix)
	if s.onList != nil {
		hook := s.onList
		s.onList = nil
		hook()
	}
	return keys, err
}

func TestAssetIndexDoesNotCacheListingRacedByPut(t *testing.T) {
	mr, client := newClient(t)
	backing := &racingStore{ObjectStore: memory.NewObjectStore("https://cdn.test")}
	index := NewAssetIndex(backing, client, time.Minute)
	ctx := context.Background()
	_ = backing.ObjectStore.Put(ctx, "generated/cat/a.png", []byte("a"), "image/png")

	backing.onList = func() {
		if err := index.Put(ctx, "generated/cat/b.png", []byte("b"), "image/png"); err != nil {
			t.Errorf("concurrent put: %v", err)
		}
	}
	keys, err := index.List(ctx, "generated/cat/")
	if err != nil || len(keys) != 1 {
		t.Fatalf("first list: keys=%v err=%v", keys, err)
	}
	if mr.Exists("assets:generated/cat/") {
		t.Fatalf("stale listing must not be cached")
	}

	keys, _ = index.List(ctx, "generated/cat/")
	if len(keys) != 2 {
		t.Fatalf("expected fresh listing with both keys, got %v", keys)
	}
	if !mr.Exists("assets:generated/cat/") {
		t.Fatalf("expected fresh listing cached")
	}
}

func TestAssetIndexFallsBackWhenRedisIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	backing := &countingStore{ObjectStore: memory.NewObjectStore("https://cdn.test")}
	index := NewAssetIndex(backing, client, time.Minute)
	ctx := context.Background()
	_ = backing.ObjectStore.Put(ctx, "generated/rose/a.png", []byte("a"), "image/png")

	mr.Close()
	keys, err := index.List(ctx, "generated/rose/")
	if err != nil || len(keys) != 1 {
		t.Fatalf("expected listing from the store, keys=%v err=%v", keys, err)
	}
}
