package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"cinnarito/internal/growth"
	"cinnarito/internal/models"
	"cinnarito/internal/providers"
	"cinnarito/internal/structures"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type GameStateRepositoryInterface interface {
	Get(ctx context.Context, subreddit string) (*models.GameState, error)
	Initialize(ctx context.Context, subreddit string) (*models.GameState, error)
	Update(ctx context.Context, subreddit string, update models.GameStateUpdate) (*models.GameState, error)
	Seed(ctx context.Context, state *models.GameState) (bool, error)

	RecordAction(ctx context.Context, entry models.ActionHistory) (*models.ActionHistory, *models.GameState, error)
	GetActionHistory(ctx context.Context, subreddit string, limit int) ([]models.ActionHistory, error)

	TrackActivePlayer(ctx context.Context, subreddit, username string) error
	GetActivePlayerCount(ctx context.Context, subreddit string) (int64, error)

	CheckActionCooldown(ctx context.Context, username, subreddit, scope string) (bool, error)
	CooldownRemaining(ctx context.Context, username, subreddit, scope string) (time.Duration, error)
	SetActionCooldown(ctx context.Context, username, subreddit, scope string, ttl time.Duration) error

	GetDailyStats(ctx context.Context, subreddit, date string) (*models.DailyGrowthStats, error)
	GetDailyStatsRange(ctx context.Context, subreddit string, dates []string) ([]models.DailyGrowthStats, error)
	SaveDailyStatsOnce(ctx context.Context, stats *models.DailyGrowthStats) (*models.DailyGrowthStats, bool, error)

	GetSchedules(ctx context.Context, subreddit string) ([]models.ChronicleSchedule, error)
	SaveSchedules(ctx context.Context, subreddit string, schedules []models.ChronicleSchedule) error

	RegisterSubreddit(ctx context.Context, subreddit string) error
	UnregisterSubreddit(ctx context.Context, subreddit string) error
	ListSubreddits(ctx context.Context) ([]string, error)

	Ping(ctx context.Context) error
}

type GameStateRepository struct {
	base
	historyLimit int
	activeWindow time.Duration
}

func NewGameStateRepository(client redis.UniversalClient, conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *GameStateRepository {
	return &GameStateRepository{
		base:         newBase(client, conf, logger, metrics),
		historyLimit: conf.Game.HistoryCap(),
		activeWindow: conf.Game.ActiveWindow(),
	}
}

func (r *GameStateRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *GameStateRepository) Get(ctx context.Context, subreddit string) (*models.GameState, error) {
	return Retry(ctx, r.retry, func() (*models.GameState, error) {
		return r.get(ctx, subreddit)
	})
}

func (r *GameStateRepository) get(ctx context.Context, subreddit string) (*models.GameState, error) {
	var state models.GameState
	found, err := r.getRecord(ctx, r.keys.State(subreddit), &state)
	if err != nil || !found {
		return nil, err
	}
	return &state, nil
}

// Initialize creates a level 1 record on first access and returns the
// existing one untouched afterwards.
func (r *GameStateRepository) Initialize(ctx context.Context, subreddit string) (*models.GameState, error) {
	if subreddit == "" {
		return nil, fmt.Errorf("%w: empty subreddit name", models.ErrValidation)
	}
	return Retry(ctx, r.retry, func() (*models.GameState, error) {
		raw, err := json.Marshal(models.NewGameState(subreddit, r.now()))
		if err != nil {
			return nil, err
		}
		created, err := r.client.SetNX(ctx, r.keys.State(subreddit), raw, 0).Result()
		if err != nil {
			return nil, err
		}
		if created {
			r.logger.Infof(providers.TypeApp, "Spirit tree planted for r/%s", subreddit)
		}
		if err := r.client.SAdd(ctx, r.keys.Subreddits(), subreddit).Err(); err != nil {
			return nil, err
		}
		state, err := r.get(ctx, subreddit)
		if err != nil {
			return nil, err
		}
		if state == nil {
			return nil, fmt.Errorf("%w: state for r/%s vanished after init", models.ErrNotFound, subreddit)
		}
		return state, nil
	})
}

// Seed stores a full record if none exists yet. Used when restoring archives.
// The stored level is re-derived from growth, whatever the record says.
func (r *GameStateRepository) Seed(ctx context.Context, state *models.GameState) (bool, error) {
	if err := state.Validate(); err != nil {
		return false, err
	}
	seeded := *state
	seeded.TotalGrowth = growth.Round2(seeded.TotalGrowth)
	seeded.TreeLevel = growth.ComputeLevel(seeded.TotalGrowth)
	return Retry(ctx, r.retry, func() (bool, error) {
		raw, err := json.Marshal(&seeded)
		if err != nil {
			return false, err
		}
		created, err := r.client.SetNX(ctx, r.keys.State(seeded.SubredditName), raw, 0).Result()
		if err != nil {
			return false, err
		}
		return created, r.client.SAdd(ctx, r.keys.Subreddits(), seeded.SubredditName).Err()
	})
}

// Update merges the partial update under an optimistic lock, re-derives
// the tree level and bumps the version.
func (r *GameStateRepository) Update(ctx context.Context, subreddit string, update models.GameStateUpdate) (*models.GameState, error) {
	return Retry(ctx, r.retry, func() (*models.GameState, error) {
		var out models.GameState
		err := r.compareAndSwap(ctx, r.keys.State(subreddit), func(raw []byte) ([]byte, error) {
			if raw == nil {
				return nil, fmt.Errorf("%w: game state for r/%s", models.ErrNotFound, subreddit)
			}
			var state models.GameState
			if err := decode(raw, &state); err != nil {
				return nil, err
			}

			update.Apply(&state)
			state.TotalGrowth = growth.Round2(state.TotalGrowth)
			state.TreeLevel = growth.ComputeLevel(state.TotalGrowth)
			state.UpdatedAt = r.now()
			state.Version++

			out = state
			return json.Marshal(&state)
		})
		if err != nil {
			return nil, err
		}
		return &out, nil
	})
}

// RecordAction stamps the entry, prepends it to the capped history and folds
// it into the subreddit counters.
func (r *GameStateRepository) RecordAction(ctx context.Context, entry models.ActionHistory) (*models.ActionHistory, *models.GameState, error) {
	entry.ID = uuid.NewString()
	entry.Timestamp = r.now()
	if err := entry.Validate(); err != nil {
		return nil, nil, err
	}

	raw, err := json.Marshal(&entry)
	if err != nil {
		return nil, nil, err
	}

	key := r.keys.Actions(entry.SubredditName)
	err = r.retry.Do(ctx, func() error {
		_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.LPush(ctx, key, raw)
			pipe.LTrim(ctx, key, 0, int64(r.historyLimit-1))
			return nil
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	state, err := r.Update(ctx, entry.SubredditName, models.ActionUpdate(entry.ActionType, entry.GrowthContributed))
	if err != nil {
		return &entry, nil, err
	}
	return &entry, state, nil
}

// GetActionHistory returns the newest entries first.
func (r *GameStateRepository) GetActionHistory(ctx context.Context, subreddit string, limit int) ([]models.ActionHistory, error) {
	if limit <= 0 || limit > r.historyLimit {
		limit = r.historyLimit
	}
	return Retry(ctx, r.retry, func() ([]models.ActionHistory, error) {
		items, err := r.client.LRange(ctx, r.keys.Actions(subreddit), 0, int64(limit-1)).Result()
		if err != nil {
			return nil, err
		}
		history := make([]models.ActionHistory, 0, len(items))
		for _, item := range items {
			var entry models.ActionHistory
			if err := decode([]byte(item), &entry); err != nil {
				return nil, err
			}
			history = append(history, entry)
		}
		return history, nil
	})
}

func (r *GameStateRepository) TrackActivePlayer(ctx context.Context, subreddit, username string) error {
	key := r.keys.Active(subreddit)
	return r.retry.Do(ctx, func() error {
		now := r.now()
		cutoff := now.Add(-r.activeWindow).UnixMilli()
		_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: username})
			pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
			pipe.PExpire(ctx, key, r.activeWindow)
			return nil
		})
		return err
	})
}

// GetActivePlayerCount counts players seen within the active window
// without mutating the set.
func (r *GameStateRepository) GetActivePlayerCount(ctx context.Context, subreddit string) (int64, error) {
	return Retry(ctx, r.retry, func() (int64, error) {
		cutoff := r.now().Add(-r.activeWindow).UnixMilli()
		return r.client.ZCount(ctx, r.keys.Active(subreddit), strconv.FormatInt(cutoff, 10), "+inf").Result()
	})
}

func (r *GameStateRepository) CheckActionCooldown(ctx context.Context, username, subreddit, scope string) (bool, error) {
	remaining, err := r.CooldownRemaining(ctx, username, subreddit, scope)
	if err != nil {
		return false, err
	}
	return remaining > 0, nil
}

// CooldownRemaining reads the stored expiry; an expired key is deleted.
func (r *GameStateRepository) CooldownRemaining(ctx context.Context, username, subreddit, scope string) (time.Duration, error) {
	key := r.keys.Cooldown(username, subreddit, scope)
	return Retry(ctx, r.retry, func() (time.Duration, error) {
		val, err := r.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		expiry, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: cooldown %s: %s", models.ErrValidation, key, err)
		}
		now := r.now().UnixMilli()
		if now >= expiry {
			return 0, r.client.Del(ctx, key).Err()
		}
		return time.Duration(expiry-now) * time.Millisecond, nil
	})
}

func (r *GameStateRepository) SetActionCooldown(ctx context.Context, username, subreddit, scope string, ttl time.Duration) error {
	key := r.keys.Cooldown(username, subreddit, scope)
	return r.retry.Do(ctx, func() error {
		expiry := r.now().Add(ttl).UnixMilli()
		return r.client.Set(ctx, key, strconv.FormatInt(expiry, 10), ttl).Err()
	})
}

func (r *GameStateRepository) GetDailyStats(ctx context.Context, subreddit, date string) (*models.DailyGrowthStats, error) {
	return Retry(ctx, r.retry, func() (*models.DailyGrowthStats, error) {
		var stats models.DailyGrowthStats
		found, err := r.getRecord(ctx, r.keys.Daily(subreddit, date), &stats)
		if err != nil || !found {
			return nil, err
		}
		return &stats, nil
	})
}

// GetDailyStatsRange returns the snapshots that exist for dates, in the given order.
func (r *GameStateRepository) GetDailyStatsRange(ctx context.Context, subreddit string, dates []string) ([]models.DailyGrowthStats, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = r.keys.Daily(subreddit, d)
	}
	return Retry(ctx, r.retry, func() ([]models.DailyGrowthStats, error) {
		vals, err := r.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, err
		}
		out := make([]models.DailyGrowthStats, 0, len(vals))
		for _, v := range vals {
			s, ok := v.(string)
			if !ok {
				continue
			}
			var stats models.DailyGrowthStats
			if err := decode([]byte(s), &stats); err != nil {
				return nil, err
			}
			out = append(out, stats)
		}
		return out, nil
	})
}

// SaveDailyStatsOnce keeps the first snapshot written for a date and
// returns whatever is stored, so repeated calls see identical data.
func (r *GameStateRepository) SaveDailyStatsOnce(ctx context.Context, stats *models.DailyGrowthStats) (*models.DailyGrowthStats, bool, error) {
	if err := stats.Validate(); err != nil {
		return nil, false, err
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return nil, false, err
	}
	key := r.keys.Daily(stats.SubredditName, stats.Date)

	var created bool
	stored, err := Retry(ctx, r.retry, func() (*models.DailyGrowthStats, error) {
		var err error
		created, err = r.client.SetNX(ctx, key, raw, 0).Result()
		if err != nil {
			return nil, err
		}
		var out models.DailyGrowthStats
		if _, err := r.getRecord(ctx, key, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	return stored, created, err
}

func (r *GameStateRepository) GetSchedules(ctx context.Context, subreddit string) ([]models.ChronicleSchedule, error) {
	return Retry(ctx, r.retry, func() ([]models.ChronicleSchedule, error) {
		raw, err := r.client.Get(ctx, r.keys.Schedules(subreddit)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		var schedules []models.ChronicleSchedule
		if err := json.Unmarshal(raw, &schedules); err != nil {
			return nil, fmt.Errorf("%w: schedules for r/%s: %s", models.ErrValidation, subreddit, err)
		}
		return schedules, nil
	})
}

func (r *GameStateRepository) SaveSchedules(ctx context.Context, subreddit string, schedules []models.ChronicleSchedule) error {
	raw, err := json.Marshal(schedules)
	if err != nil {
		return err
	}
	return r.retry.Do(ctx, func() error {
		return r.client.Set(ctx, r.keys.Schedules(subreddit), raw, 0).Err()
	})
}

func (r *GameStateRepository) RegisterSubreddit(ctx context.Context, subreddit string) error {
	return r.retry.Do(ctx, func() error {
		return r.client.SAdd(ctx, r.keys.Subreddits(), subreddit).Err()
	})
}

// UnregisterSubreddit drops the subreddit from the registry along with its
// chronicle schedules. Game data is left alone.
func (r *GameStateRepository) UnregisterSubreddit(ctx context.Context, subreddit string) error {
	return r.retry.Do(ctx, func() error {
		_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SRem(ctx, r.keys.Subreddits(), subreddit)
			pipe.Del(ctx, r.keys.Schedules(subreddit))
			return nil
		})
		return err
	})
}

func (r *GameStateRepository) ListSubreddits(ctx context.Context) ([]string, error) {
	return Retry(ctx, r.retry, func() ([]string, error) {
		names, err := r.client.SMembers(ctx, r.keys.Subreddits()).Result()
		if err != nil {
			return nil, err
		}
		slices.Sort(names)
		return names, nil
	})
}
