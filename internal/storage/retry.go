package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinnarito/internal/models"
	"cinnarito/internal/structures"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultAttempts  = 3
	defaultBaseDelay = time.Second
)

// RetryPolicy retries transient store failures with exponential backoff
// (base, 2*base, 4*base, ...). Caller-side errors are never retried.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	OnRetry   func(err error, next time.Duration)
}

func NewRetryPolicy(conf *structures.Config) RetryPolicy {
	p := RetryPolicy{Attempts: conf.Retry.Attempts, BaseDelay: conf.Retry.BaseDelay}
	if p.Attempts <= 0 {
		p.Attempts = defaultAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultBaseDelay
	}
	return p
}

func (p RetryPolicy) backOff() backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         p.BaseDelay << 4,
	}
	b.Reset()
	return b
}

// Do runs op until it succeeds, fails permanently or runs out of attempts.
// Exhausted attempts surface as ErrStoreUnavailable wrapping the last error.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	_, err := Retry(ctx, p, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}

func Retry[T any](ctx context.Context, p RetryPolicy, op func() (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(attempts)),
	}
	if p.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(backoff.Notify(p.OnRetry)))
	}

	res, err := backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && IsPermanent(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, opts...)
	if err == nil {
		return res, nil
	}
	if IsPermanent(err) {
		return res, unwrapPermanent(err)
	}
	return res, fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
}

// IsPermanent reports errors that retrying cannot fix.
func IsPermanent(err error) bool {
	for _, target := range []error{
		models.ErrNotFound,
		models.ErrValidation,
		models.ErrInsufficientResources,
		models.ErrOnCooldown,
		models.ErrUnknownAction,
		models.ErrUnknownTemplate,
		models.ErrStoreUnavailable,
		context.Canceled,
		context.DeadlineExceeded,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}
