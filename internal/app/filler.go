package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"aiornot-quiz-service/internal/domain"
	"aiornot-quiz-service/internal/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// FillConfig bounds the generation worker pool.
type FillConfig struct {
	MaxWorkers  int
	TaskTimeout time.Duration
}

// FillReport summarizes one Fill call.
type FillReport struct {
	Refs       []domain.GeneratedAssetRef
	Dispatched int // first-pass tasks
	Retried    int // retry-pass tasks, zero when no retry pass ran
	Failed     int // tasks that produced nothing after the last pass
}

// Filler generates the missing images for a topic on a bounded pool of workers.
type Filler struct {
	gen   ImageGenerator
	store ObjectStore
	cfg   FillConfig
	log   *logger.Logger
	now   func() time.Time
	newID func() string

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewFiller(gen ImageGenerator, store ObjectStore, cfg FillConfig, rnd *rand.Rand, log *logger.Logger) *Filler {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Filler{
		gen:   gen,
		store: store,
		cfg:   cfg,
		log:   log.With("component", "filler"),
		now:   time.Now,
		newID: func() string { return uuid.NewString()[:8] },
		rnd:   rnd,
	}
}

type taskResult struct {
	prompt string
	refs   []domain.GeneratedAssetRef
}

// Fill dispatches one generation task per selected prompt and blocks until all of them return.
// Prompts that produced nothing are retried exactly once when the first pass fell short.
// Per-prompt failures are never returned; callers must re-check the size of the result.
// onProgress may be nil and is called concurrently from workers.
func (f *Filler) Fill(ctx context.Context, namespace string, prompts []string, deficit int, onProgress func(done, total int)) FillReport {
	if deficit <= 0 || len(prompts) == 0 {
		return FillReport{}
	}
	selected := f.selectPrompts(prompts, deficit)

	var done atomic.Int64
	total := len(selected)
	tick := func() {
		if onProgress != nil {
			onProgress(int(done.Add(1)), total)
		}
	}

	report := FillReport{Dispatched: len(selected)}
	refs, failed := f.runPass(ctx, namespace, selected, tick)
	if len(refs) < deficit && len(failed) > 0 {
		f.log.Info("retrying failed prompts", "namespace", namespace, "produced", len(refs), "deficit", deficit, "failed", len(failed))
		report.Retried = len(failed)
		total += len(failed)
		var retried []domain.GeneratedAssetRef
		retried, failed = f.runPass(ctx, namespace, failed, tick)
		refs = append(refs, retried...)
	}
	report.Refs = refs
	report.Failed = len(failed)

	f.log.Info("fill finished",
		"namespace", namespace,
		"deficit", deficit,
		"produced", len(refs),
		"dispatched", report.Dispatched,
		"retried", report.Retried,
		"failed", report.Failed,
	)
	return report
}

// selectPrompts picks deficit prompt instances, without replacement while the catalog lasts.
func (f *Filler) selectPrompts(prompts []string, deficit int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, deficit)
	for len(out) < deficit {
		for _, i := range f.rnd.Perm(len(prompts)) {
			if len(out) == deficit {
				break
			}
			out = append(out, prompts[i])
		}
	}
	return out
}

// runPass is the join barrier: every task runs to completion, results are drained by this goroutine only.
func (f *Filler) runPass(ctx context.Context, namespace string, prompts []string, tick func()) ([]domain.GeneratedAssetRef, []string) {
	results := make(chan taskResult, len(prompts))

	var g errgroup.Group
	g.SetLimit(f.cfg.MaxWorkers)
	for _, prompt := range prompts {
		g.Go(func() error {
			res := f.runTask(ctx, namespace, prompt)
			tick()
			results <- res
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	var refs []domain.GeneratedAssetRef
	var failed []string
	for res := range results {
		if len(res.refs) == 0 {
			failed = append(failed, res.prompt)
			continue
		}
		refs = append(refs, res.refs...)
	}
	return refs, failed
}

func (f *Filler) runTask(ctx context.Context, namespace, prompt string) taskResult {
	res := taskResult{prompt: prompt}
	if f.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.TaskTimeout)
		defer cancel()
	}

	images, err := f.gen.Generate(ctx, prompt)
	if err != nil {
		f.log.Warn("image generation failed", "namespace", namespace, "prompt", shorten(prompt), "error", err)
		return res
	}
	if len(images) == 0 {
		f.log.Warn("image generation returned no images", "namespace", namespace, "prompt", shorten(prompt))
		return res
	}

	base := domain.Slugify(prompt)
	ts := f.now().Unix()
	for idx, img := range images {
		if len(img.Data) == 0 {
			continue
		}
		contentType, ext := imageType(img.MimeType)
		key := fmt.Sprintf("%s%s-%d-%s-%d%s", TopicPrefix(namespace), base, ts, f.newID(), idx, ext)
		if err := f.store.Put(ctx, key, img.Data, contentType); err != nil {
			f.log.Warn("image upload failed", "key", key, "error", err)
			continue
		}
		res.refs = append(res.refs, domain.GeneratedAssetRef{Key: key, URL: f.store.PublicURL(key)})
	}
	f.log.Debug("generation task done", "namespace", namespace, "stored", len(res.refs))
	return res
}

func imageType(mime string) (string, string) {
	switch mime {
	case "image/jpeg", "image/jpg":
		return "image/jpeg", ".jpg"
	case "image/webp":
		return "image/webp", ".webp"
	default:
		return "image/png", ".png"
	}
}

func shorten(s string) string {
	const limit = 48
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
