package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"aiornot-quiz-service/internal/domain"
	"aiornot-quiz-service/internal/logger"
)

// Resolver inspects the object store for images generated by earlier requests.
type Resolver struct {
	store ObjectStore
	log   *logger.Logger
}

func NewResolver(store ObjectStore, log *logger.Logger) *Resolver {
	return &Resolver{store: store, log: log.With("component", "resolver")}
}

// Resolve lists the topic namespace and returns the cached pool and how many images are still missing.
// It is read-only; an unreachable store is fatal.
func (r *Resolver) Resolve(ctx context.Context, namespace string, target int) (*domain.AssetPool, int, error) {
	prefix := TopicPrefix(namespace)
	keys, err := r.store.List(ctx, prefix)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list %s: %w", domain.ErrUpstream, prefix, err)
	}
	sort.Strings(keys)

	pool := domain.NewAssetPool()
	for _, key := range keys {
		if key == "" || strings.HasSuffix(key, "/") {
			continue
		}
		pool.Add(domain.GeneratedAssetRef{Key: key, URL: r.store.PublicURL(key)})
	}

	deficit := target - pool.Len()
	if deficit < 0 {
		deficit = 0
	}
	r.log.Debug("assets resolved", "namespace", namespace, "cached", pool.Len(), "deficit", deficit)
	return pool, deficit, nil
}
