package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"aiornot-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const maxTxAttempts = 5

// ProgressStore keeps one in-progress record per key as JSON and appends completed records to a list.
//
//	SET   progress:active:{user}:{difficulty}:{topic} {json}   (NX on create)
//	RPUSH progress:done:{user}:{difficulty}:{topic} {json}
type ProgressStore struct {
	client *redis.Client
	ttl    time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewProgressStore expires idle in-progress records after ttl (plus jitter); zero keeps them forever.
func NewProgressStore(client *redis.Client, ttl time.Duration) *ProgressStore {
	return &ProgressStore{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *ProgressStore) FindActive(ctx context.Context, key domain.ProgressKey) (domain.GameProgress, bool, error) {
	raw, err := s.client.Get(ctx, activeKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.GameProgress{}, false, nil
	}
	if err != nil {
		return domain.GameProgress{}, false, fmt.Errorf("get progress: %w", err)
	}
	rec, err := decode(raw)
	if err != nil {
		return domain.GameProgress{}, false, err
	}
	return rec, true, nil
}

func (s *ProgressStore) CreateActive(ctx context.Context, p domain.GameProgress) (domain.GameProgress, bool, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.IsCompleted = false
	raw, err := json.Marshal(p)
	if err != nil {
		return domain.GameProgress{}, false, fmt.Errorf("marshal progress: %w", err)
	}
	ok, err := s.client.SetNX(ctx, activeKey(p.Key()), raw, s.ttlWithJitter()).Result()
	if err != nil {
		return domain.GameProgress{}, false, fmt.Errorf("create progress: %w", err)
	}
	if ok {
		return p, true, nil
	}
	existing, found, err := s.FindActive(ctx, p.Key())
	if err != nil {
		return domain.GameProgress{}, false, err
	}
	if !found {
		return domain.GameProgress{}, false, fmt.Errorf("create progress: record vanished after conflict")
	}
	return existing, false, nil
}

func (s *ProgressStore) UpdateActive(ctx context.Context, key domain.ProgressKey, u domain.ProgressUpdate) (domain.GameProgress, bool, error) {
	k := activeKey(key)
	var (
		rec   domain.GameProgress
		found bool
	)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		rec, err = decode(raw)
		if err != nil {
			return err
		}
		found = true
		u.Apply(&rec)
		next, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if rec.IsCompleted {
				pipe.Del(ctx, k)
				pipe.RPush(ctx, doneKey(key), next)
				return nil
			}
			pipe.Set(ctx, k, next, s.ttlWithJitter())
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return domain.GameProgress{}, false, fmt.Errorf("update progress: %w", err)
		}
		return rec, found, nil
	}
	return domain.GameProgress{}, false, fmt.Errorf("update progress: too much contention on %s", k)
}

func (s *ProgressStore) DeleteActive(ctx context.Context, key domain.ProgressKey) (bool, error) {
	n, err := s.client.Del(ctx, activeKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("delete progress: %w", err)
	}
	return n > 0, nil
}

// Completed returns completed records for a key, oldest first.
func (s *ProgressStore) Completed(ctx context.Context, key domain.ProgressKey) ([]domain.GameProgress, error) {
	items, err := s.client.LRange(ctx, doneKey(key), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list completed: %w", err)
	}
	out := make([]domain.GameProgress, 0, len(items))
	for _, item := range items {
		rec, err := decode([]byte(item))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *ProgressStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}

func activeKey(key domain.ProgressKey) string {
	return "progress:active:" + key.UserID + ":" + string(key.Difficulty) + ":" + key.Topic
}

func doneKey(key domain.ProgressKey) string {
	return "progress:done:" + key.UserID + ":" + string(key.Difficulty) + ":" + key.Topic
}

func decode(raw []byte) (domain.GameProgress, error) {
	var rec domain.GameProgress
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.GameProgress{}, fmt.Errorf("unmarshal progress: %w", err)
	}
	return rec, nil
}
