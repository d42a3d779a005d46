package cli

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"aiornot-quiz-service/internal/app"
	"aiornot-quiz-service/internal/config"
	"aiornot-quiz-service/internal/domain"
	"aiornot-quiz-service/internal/infra/gcs"
	"aiornot-quiz-service/internal/infra/gemini"
	"aiornot-quiz-service/internal/infra/localfs"
	"aiornot-quiz-service/internal/infra/memory"
	"aiornot-quiz-service/internal/infra/openai"
	"aiornot-quiz-service/internal/infra/pixabay"
	pgstore "aiornot-quiz-service/internal/infra/postgres"
	redisstore "aiornot-quiz-service/internal/infra/redis"
	"aiornot-quiz-service/internal/infra/resilience"
	"aiornot-quiz-service/internal/infra/sqlite"
	"aiornot-quiz-service/internal/logger"
	transport "aiornot-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// services holds the wired services and everything that must be released on shutdown.
type services struct {
	games    *app.GameService
	progress *app.ProgressService
	revoked  transport.RevocationStore
	static   *localfs.ObjectStore
	closers  []func()
}

func (rt *services) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

func buildServices(ctx context.Context, cfg config.Config, publicBase string, log *logger.Logger) (*services, error) {
	rt := &services{}
	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = redisClient.Close() })
	}

	store, err := buildObjectStore(ctx, cfg, publicBase, rt)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		store = redisstore.NewAssetIndex(store, redisClient, config.Duration(cfg.Redis.ListingTTL, 10*time.Minute))
	}

	gen, err := buildGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gen = resilience.WrapGenerator(gen, resilience.Policy{
		Timeout:         config.Duration(cfg.Generation.Timeout, 90*time.Second),
		MaxRetries:      cfg.Generation.Retries,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		RatePerSec:      cfg.Generation.RatePerSec,
		Burst:           cfg.Generation.MaxWorkers,
	}, log)

	refs := resilience.WrapReferences(
		pixabay.NewClient(cfg.Reference.BaseURL, cfg.Reference.APIKey, config.Duration(cfg.Reference.Timeout, 15*time.Second)),
		resilience.Policy{MaxRetries: max(cfg.Reference.Retries, 0), InitialInterval: 250 * time.Millisecond, MaxInterval: 2 * time.Second},
		log,
	)

	progressStore, err := buildProgressStore(ctx, cfg, redisClient, rt)
	if err != nil {
		return nil, err
	}

	if redisClient != nil {
		rt.revoked = redisstore.NewRevocationStore(redisClient)
	} else {
		rt.revoked = memory.NewRevocationStore()
	}

	seed := time.Now().UnixNano()
	catalog := domain.DefaultCatalog()
	rt.games = app.NewGameService(app.GameDeps{
		Catalog:  catalog,
		Resolver: app.NewResolver(store, log),
		Filler: app.NewFiller(gen, store, app.FillConfig{
			MaxWorkers:  cfg.Generation.MaxWorkers,
			TaskTimeout: config.Duration(cfg.Generation.TaskTimeout, 3*time.Minute),
		}, rand.New(rand.NewSource(seed)), log),
		References: refs,
		Assembler:  app.NewAssembler(rand.New(rand.NewSource(seed + 1))),
		Rand:       rand.New(rand.NewSource(seed + 2)),
		Log:        log,
	}, app.GameConfig{
		QuestionCount: cfg.Quiz.QuestionCount,
		TargetAssets:  cfg.Quiz.TargetAssets,
		MinRequired:   cfg.Quiz.MinRequired,
	})
	rt.progress = app.NewProgressService(progressStore, catalog, log)

	log.Info("services ready",
		"storage", cfg.Storage.Backend,
		"generator", cfg.Generation.Provider,
		"progress", cfg.ProgressBackend(),
		"max_workers", cfg.Generation.MaxWorkers,
	)
	ok = true
	return rt, nil
}

func buildObjectStore(ctx context.Context, cfg config.Config, publicBase string, rt *services) (app.ObjectStore, error) {
	switch cfg.Storage.Backend {
	case "gcs":
		store, err := gcs.NewObjectStore(ctx, cfg.Storage.Bucket, cfg.Storage.BaseURL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = store.Close() })
		return store, nil
	case "localfs":
		base := cfg.Storage.BaseURL
		if base == "" {
			base = publicBase + "/static"
		}
		store, err := localfs.NewObjectStore(cfg.Storage.Dir, base)
		if err != nil {
			return nil, err
		}
		rt.static = store
		return store, nil
	case "memory":
		return memory.NewObjectStore(publicBase + "/static"), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func buildGenerator(ctx context.Context, cfg config.Config) (app.ImageGenerator, error) {
	switch cfg.Generation.Provider {
	case "gemini":
		return gemini.NewGenerator(ctx, gemini.Config{APIKey: cfg.Generation.APIKey, Model: cfg.Generation.Model})
	case "openai":
		return openai.NewGenerator(openai.Config{APIKey: cfg.Generation.OpenAIKey, Model: cfg.Generation.Model})
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Generation.Provider)
	}
}

func buildProgressStore(ctx context.Context, cfg config.Config, redisClient *redis.Client, rt *services) (app.ProgressStore, error) {
	switch backend := cfg.ProgressBackend(); backend {
	case "memory":
		return memory.NewProgressStore(), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("progress backend redis needs redis.addr")
		}
		return redisstore.NewProgressStore(redisClient, config.Duration(cfg.Redis.ProgressTTL, 0)), nil
	case "postgres":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		return pgstore.NewProgressStore(pool), nil
	case "sqlite":
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = store.Close() })
		return store, nil
	default:
		return nil, fmt.Errorf("unknown progress backend %q", backend)
	}
}
