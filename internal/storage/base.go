package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinnarito/internal/models"
	"cinnarito/internal/providers"
	"cinnarito/internal/structures"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const defaultCASAttempts = 10

type validatable interface {
	Validate() error
}

// base carries what every repository needs: the client, key layout,
// retry policy and a clock that tests can replace.
type base struct {
	client      redis.UniversalClient
	keys        Keys
	retry       RetryPolicy
	casAttempts int
	logger      providers.Logger

	Now func() time.Time
}

func newBase(client redis.UniversalClient, conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) base {
	retry := NewRetryPolicy(conf)
	retry.OnRetry = func(err error, next time.Duration) {
		logger.Warnf(providers.TypeApp, "Store operation failed, retrying in %s: %s", next, err)
		metrics.IncStoreRetries()
	}

	cas := conf.Retry.CASAttempts
	if cas <= 0 {
		cas = defaultCASAttempts
	}

	return base{
		client:      client,
		keys:        NewKeys(conf.Game.Namespace),
		retry:       retry,
		casAttempts: cas,
		logger:      logger,
		Now:         time.Now,
	}
}

func (b *base) Keys() Keys {
	return b.keys
}

func (b *base) now() time.Time {
	return b.Now().UTC()
}

func decode(raw []byte, v validatable) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s", models.ErrValidation, err)
	}
	return v.Validate()
}

// getRecord loads and validates key into v. It reports false when the key is absent.
func (b *base) getRecord(ctx context.Context, key string, v validatable) (bool, error) {
	raw, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := decode(raw, v); err != nil {
		return false, err
	}
	return true, nil
}

// compareAndSwap reads key under WATCH, lets fn build the new value and
// commits it only if nobody wrote the key in between. raw is nil when the
// key does not exist.
func (b *base) compareAndSwap(ctx context.Context, key string, fn func(raw []byte) ([]byte, error)) error {
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			raw = nil
		} else if err != nil {
			return err
		}

		out, err := fn(raw)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	for i := 0; i < b.casAttempts; i++ {
		err := b.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w: %s", models.ErrConflict, key)
}
