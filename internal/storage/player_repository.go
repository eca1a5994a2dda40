package storage

import (
	"context"
	"fmt"
	"slices"

	"cinnarito/internal/models"
	"cinnarito/internal/providers"
	"cinnarito/internal/structures"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

type PlayerRepositoryInterface interface {
	Get(ctx context.Context, username, subreddit string) (*models.PlayerResources, error)
	Initialize(ctx context.Context, username, subreddit string) (*models.PlayerResources, error)
	Update(ctx context.Context, username, subreddit string, update models.PlayerUpdate) (*models.PlayerResources, error)
	SpendCinnamon(ctx context.Context, username, subreddit string, amount int) (*models.PlayerResources, error)
	AddCinnamon(ctx context.Context, username, subreddit string, amount int) (*models.PlayerResources, error)
	ListPlayers(ctx context.Context, subreddit string) ([]string, error)
}

type PlayerRepository struct {
	base
	game structures.GameConfig
}

func NewPlayerRepository(client redis.UniversalClient, conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *PlayerRepository {
	return &PlayerRepository{
		base: newBase(client, conf, logger, metrics),
		game: conf.Game,
	}
}

func (r *PlayerRepository) Get(ctx context.Context, username, subreddit string) (*models.PlayerResources, error) {
	return Retry(ctx, r.retry, func() (*models.PlayerResources, error) {
		return r.get(ctx, username, subreddit)
	})
}

func (r *PlayerRepository) get(ctx context.Context, username, subreddit string) (*models.PlayerResources, error) {
	var p models.PlayerResources
	found, err := r.getRecord(ctx, r.keys.Player(username, subreddit), &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

// Initialize gives a newcomer the starting balances on their first session.
func (r *PlayerRepository) Initialize(ctx context.Context, username, subreddit string) (*models.PlayerResources, error) {
	if username == "" || subreddit == "" {
		return nil, fmt.Errorf("%w: username and subreddit are required", models.ErrValidation)
	}
	return Retry(ctx, r.retry, func() (*models.PlayerResources, error) {
		now := r.now()
		fresh := &models.PlayerResources{
			Username:      username,
			SubredditName: subreddit,
			Cinnamon:      min(r.game.StartingCinnamon, r.game.MaxCinnamon),
			Seeds:         r.game.StartingSeeds,
			Energy:        r.game.StartingEnergy,
			LastActive:    now,
			CreatedAt:     now,
		}
		raw, err := json.Marshal(fresh)
		if err != nil {
			return nil, err
		}

		_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetNX(ctx, r.keys.Player(username, subreddit), raw, 0)
			pipe.SAdd(ctx, r.keys.Players(subreddit), username)
			return nil
		})
		if err != nil {
			return nil, err
		}

		p, err := r.get(ctx, username, subreddit)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: player %s in r/%s vanished after init", models.ErrNotFound, username, subreddit)
		}
		return p, nil
	})
}

func (r *PlayerRepository) Update(ctx context.Context, username, subreddit string, update models.PlayerUpdate) (*models.PlayerResources, error) {
	return r.mutate(ctx, username, subreddit, func(p *models.PlayerResources) error {
		update.Apply(p, r.game.MaxCinnamon)
		return nil
	})
}

// SpendCinnamon debits amount and credits it to TotalContributions. The
// balance is left unchanged when it cannot cover the amount.
func (r *PlayerRepository) SpendCinnamon(ctx context.Context, username, subreddit string, amount int) (*models.PlayerResources, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: negative amount %d", models.ErrValidation, amount)
	}
	return r.mutate(ctx, username, subreddit, func(p *models.PlayerResources) error {
		if amount > p.Cinnamon {
			return fmt.Errorf("%w: need %d cinnamon, have %d", models.ErrInsufficientResources, amount, p.Cinnamon)
		}
		now := r.now()
		models.PlayerUpdate{
			CinnamonDelta:      -amount,
			ContributionsDelta: amount,
			LastActive:         &now,
		}.Apply(p, r.game.MaxCinnamon)
		return nil
	})
}

// AddCinnamon credits amount, capped at the configured maximum.
func (r *PlayerRepository) AddCinnamon(ctx context.Context, username, subreddit string, amount int) (*models.PlayerResources, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: negative amount %d", models.ErrValidation, amount)
	}
	return r.Update(ctx, username, subreddit, models.PlayerUpdate{CinnamonDelta: amount})
}

func (r *PlayerRepository) ListPlayers(ctx context.Context, subreddit string) ([]string, error) {
	return Retry(ctx, r.retry, func() ([]string, error) {
		names, err := r.client.SMembers(ctx, r.keys.Players(subreddit)).Result()
		if err != nil {
			return nil, err
		}
		slices.Sort(names)
		return names, nil
	})
}

func (r *PlayerRepository) mutate(ctx context.Context, username, subreddit string, fn func(p *models.PlayerResources) error) (*models.PlayerResources, error) {
	return Retry(ctx, r.retry, func() (*models.PlayerResources, error) {
		var out models.PlayerResources
		err := r.compareAndSwap(ctx, r.keys.Player(username, subreddit), func(raw []byte) ([]byte, error) {
			if raw == nil {
				return nil, fmt.Errorf("%w: player %s in r/%s", models.ErrNotFound, username, subreddit)
			}
			var p models.PlayerResources
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			if err := fn(&p); err != nil {
				return nil, err
			}
			if p.Cinnamon < 0 {
				p.Cinnamon = 0
			}
			out = p
			return json.Marshal(&p)
		})
		if err != nil {
			return nil, err
		}
		return &out, nil
	})
}
