// Package resilience decorates outbound calls with per-call timeouts, exponential retry and rate limiting.
package resilience

import (
	"context"
	"errors"
	"time"

	"aiornot-quiz-service/internal/app"
	"aiornot-quiz-service/internal/domain"
	"aiornot-quiz-service/internal/logger"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Policy configures one decorated dependency. Zero values disable the corresponding behavior.
type Policy struct {
	Timeout         time.Duration
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// RatePerSec caps call starts per second across all callers.
	RatePerSec float64
	Burst      int
}

type caller struct {
	name    string
	policy  Policy
	limiter *rate.Limiter
	log     *logger.Logger
}

func newCaller(name string, p Policy, log *logger.Logger) *caller {
	c := &caller{name: name, policy: p, log: log.With("component", "resilience", "dependency", name)}
	if p.RatePerSec > 0 {
		burst := p.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(p.RatePerSec), burst)
	}
	return c
}

func (c *caller) backOff(ctx context.Context) backoff.BackOff {
	opts := []backoff.ExponentialBackOffOpts{backoff.WithMaxElapsedTime(0)}
	if c.policy.InitialInterval > 0 {
		opts = append(opts, backoff.WithInitialInterval(c.policy.InitialInterval))
	}
	if c.policy.MaxInterval > 0 {
		opts = append(opts, backoff.WithMaxInterval(c.policy.MaxInterval))
	}
	retries := c.policy.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(opts...), uint64(retries)), ctx)
}

func do[T any](ctx context.Context, c *caller, op func(context.Context) (T, error)) (T, error) {
	attempt := func() (T, error) {
		var zero T
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return zero, backoff.Permanent(err)
			}
		}
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if c.policy.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.policy.Timeout)
		}
		defer cancel()

		res, err := op(callCtx)
		if err == nil {
			return res, nil
		}
		if !retryable(ctx, err) {
			return zero, backoff.Permanent(err)
		}
		return zero, err
	}
	notify := func(err error, wait time.Duration) {
		c.log.Debug("retrying call", "error", err, "wait", wait)
	}
	return backoff.RetryNotifyWithData(attempt, c.backOff(ctx), notify)
}

// retryable treats a per-call timeout as transient but never retries once the caller gave up.
func retryable(parent context.Context, err error) bool {
	if parent.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var up *domain.UpstreamError
	if errors.As(err, &up) {
		return up.Temporary()
	}
	return true
}

type generator struct {
	inner app.ImageGenerator
	c     *caller
}

// WrapGenerator applies p to every Generate call.
func WrapGenerator(inner app.ImageGenerator, p Policy, log *logger.Logger) app.ImageGenerator {
	return &generator{inner: inner, c: newCaller("generator", p, log)}
}

func (g *generator) Generate(ctx context.Context, prompt string) ([]domain.Image, error) {
	return do(ctx, g.c, func(ctx context.Context) ([]domain.Image, error) {
		return g.inner.Generate(ctx, prompt)
	})
}

type references struct {
	inner app.ReferenceSource
	c     *caller
}

// WrapReferences applies p to every Search call.
func WrapReferences(inner app.ReferenceSource, p Policy, log *logger.Logger) app.ReferenceSource {
	return &references{inner: inner, c: newCaller("references", p, log)}
}

func (r *references) Search(ctx context.Context, query string, perPage int) ([]string, error) {
	return do(ctx, r.c, func(ctx context.Context) ([]string, error) {
		return r.inner.Search(ctx, query, perPage)
	})
}
