package redis

import (
	"context"
	"errors"
	"math/rand"
	"path"
	"sort"
	"sync"
	"time"

	"aiornot-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// AssetIndex caches object-store listings in Redis and falls back to the store on a miss.
//
//	SADD assets:{prefix}     {key...}
//	INCR assets:ver:{prefix} on every Put
//
// A Put bumps the version and drops the listing of the key's directory. A listing is only cached
// when the version did not move while the store was being read.
type AssetIndex struct {
	store  app.ObjectStore
	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

var errStaleListing = errors.New("asset listing changed while reading")

func NewAssetIndex(store app.ObjectStore, client *redis.Client, ttl time.Duration) *AssetIndex {
	return &AssetIndex{
		store:  store,
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (a *AssetIndex) List(ctx context.Context, prefix string) ([]string, error) {
	if keys, ok := a.cached(ctx, prefix); ok {
		return keys, nil
	}

	result, err, _ := a.sf.Do(prefix, func() (interface{}, error) {
		// Re-check cache in case another caller filled it.
		if keys, ok := a.cached(ctx, prefix); ok {
			return keys, nil
		}
		version, versionOK := a.version(ctx, prefix)
		keys, err := a.store.List(ctx, prefix)
		if err != nil {
			return nil, err
		}
		if versionOK && len(keys) > 0 {
			a.fill(ctx, prefix, version, keys)
		}
		return keys, nil
	})
	if err != nil {
		return nil, err
	}
	keys := result.([]string)
	out := make([]string, len(keys))
	copy(out, keys)
	return out, nil
}

func (a *AssetIndex) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := a.store.Put(ctx, key, data, contentType); err != nil {
		return err
	}
	prefix := path.Dir(key) + "/"
	_, _ = a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, a.versionKey(prefix))
		pipe.Del(ctx, a.indexKey(prefix))
		return nil
	})
	return nil
}

func (a *AssetIndex) PublicURL(key string) string {
	return a.store.PublicURL(key)
}

// cached treats a Redis failure as a miss so listings keep working when the cache is down.
func (a *AssetIndex) cached(ctx context.Context, prefix string) ([]string, bool) {
	keys, err := a.client.SMembers(ctx, a.indexKey(prefix)).Result()
	if err != nil || len(keys) == 0 {
		return nil, false
	}
	sort.Strings(keys)
	return keys, true
}

func (a *AssetIndex) version(ctx context.Context, prefix string) (int64, bool) {
	v, err := a.client.Get(ctx, a.versionKey(prefix)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	return v, err == nil
}

// fill caches the listing unless a Put moved the version since it was read.
func (a *AssetIndex) fill(ctx context.Context, prefix string, version int64, keys []string) {
	members := make([]interface{}, len(keys))
	for i, k := range keys {
		members[i] = k
	}
	verKey := a.versionKey(prefix)
	_ = a.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, verKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleListing
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SAdd(ctx, a.indexKey(prefix), members...)
			if ttl := a.ttlWithJitter(); ttl > 0 {
				pipe.Expire(ctx, a.indexKey(prefix), ttl)
			}
			return nil
		})
		return err
	}, verKey)
}

func (a *AssetIndex) indexKey(prefix string) string {
	return "assets:" + prefix
}

func (a *AssetIndex) versionKey(prefix string) string {
	return "assets:ver:" + prefix
}

func (a *AssetIndex) ttlWithJitter() time.Duration {
	if a.ttl <= 0 {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	jitterMax := int64(a.ttl) / 10
	return a.ttl + time.Duration(a.rnd.Int63n(jitterMax+1))
}
