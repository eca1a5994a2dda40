package services

import (
	"context"
	"fmt"
	"time"

	"cinnarito/internal/growth"
	"cinnarito/internal/models"
	"cinnarito/internal/providers"
	"cinnarito/internal/storage"
)

const (
	DefaultHistoryDays = 7
	MaxHistoryDays     = 90
)

type GrowthServiceInterface interface {
	GetDailyGrowthStats(ctx context.Context, subreddit, date string) (*models.DailyGrowthStats, error)
	CalculateGrowth(ctx context.Context, subreddit string) (*models.GrowthCalculation, error)
	GetGrowthHistory(ctx context.Context, subreddit string, days int) ([]models.DailyGrowthStats, error)
	AwardUpvotes(ctx context.Context, subreddit string, count int64) (*models.GameState, error)
}

type GrowthService struct {
	games  storage.GameStateRepositoryInterface
	logger providers.Logger

	Now func() time.Time
}

func NewGrowthService(games storage.GameStateRepositoryInterface, logger providers.Logger) *GrowthService {
	return &GrowthService{games: games, logger: logger, Now: time.Now}
}

func (s *GrowthService) today() string {
	return models.FormatDate(s.Now())
}

func (s *GrowthService) state(ctx context.Context, subreddit string) (*models.GameState, error) {
	state, err := s.games.Get(ctx, subreddit)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%w: no spirit tree in r/%s", models.ErrNotFound, subreddit)
	}
	return state, nil
}

// GetDailyGrowthStats returns the stored snapshot for date. The first request
// for today takes the snapshot from the current counters; later requests get
// exactly what was stored. Past days are never snapshotted after the fact.
func (s *GrowthService) GetDailyGrowthStats(ctx context.Context, subreddit, date string) (*models.DailyGrowthStats, error) {
	if date == "" {
		date = s.today()
	}
	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", models.ErrValidation, date)
	}
	if day.After(s.Now().UTC()) {
		return nil, fmt.Errorf("%w: date %s is in the future", models.ErrValidation, date)
	}

	stats, err := s.games.GetDailyStats(ctx, subreddit, date)
	if err != nil || stats != nil {
		return stats, err
	}
	if date != s.today() {
		return nil, fmt.Errorf("%w: no growth snapshot for r/%s on %s", models.ErrNotFound, subreddit, date)
	}

	state, err := s.state(ctx, subreddit)
	if err != nil {
		return nil, err
	}
	active, err := s.games.GetActivePlayerCount(ctx, subreddit)
	if err != nil {
		return nil, err
	}

	stored, created, err := s.games.SaveDailyStatsOnce(ctx, &models.DailyGrowthStats{
		SubredditName:     subreddit,
		Date:              date,
		SeedsPlanted:      state.SeedsPlanted,
		SpiritsFed:        state.SpiritsFed,
		RobotCharged:      state.RobotCharged,
		RedditUpvotes:     state.DailyUpvotes,
		TotalGrowth:       growth.ComputeGrowth(state.SeedsPlanted, state.SpiritsFed, state.RobotCharged, state.DailyUpvotes),
		ActivePlayerCount: active,
		CreatedAt:         s.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Debugf(providers.TypeApp, "Daily snapshot %s taken for r/%s", date, subreddit)
	}
	return stored, nil
}

// CalculateGrowth re-derives total growth from the counters. Growth only
// ever moves up, so a lower recomputation leaves the total untouched.
func (s *GrowthService) CalculateGrowth(ctx context.Context, subreddit string) (*models.GrowthCalculation, error) {
	current, err := s.state(ctx, subreddit)
	if err != nil {
		return nil, err
	}

	computed := growth.ComputeGrowth(current.SeedsPlanted, current.SpiritsFed, current.RobotCharged, current.DailyUpvotes)
	now := s.Now().UTC()
	state, err := s.games.Update(ctx, subreddit, models.GameStateUpdate{
		TotalGrowth:           &computed,
		LastGrowthCalculation: &now,
	})
	if err != nil {
		return nil, err
	}

	stats, err := s.GetDailyGrowthStats(ctx, subreddit, models.FormatDate(now))
	if err != nil {
		return nil, err
	}
	return &models.GrowthCalculation{GameState: state, DailyStats: stats, Computed: computed}, nil
}

// GetGrowthHistory returns the snapshots of the last days, newest first.
// Days without a snapshot are skipped.
func (s *GrowthService) GetGrowthHistory(ctx context.Context, subreddit string, days int) ([]models.DailyGrowthStats, error) {
	if days <= 0 {
		days = DefaultHistoryDays
	}
	days = min(days, MaxHistoryDays)

	today := s.Now().UTC()
	dates := make([]string, days)
	for i := range dates {
		dates[i] = models.FormatDate(today.AddDate(0, 0, -i))
	}
	history, err := s.games.GetDailyStatsRange(ctx, subreddit, dates)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []models.DailyGrowthStats{}
	}
	return history, nil
}

// AwardUpvotes adds upvotes to the running counter, which is never reset,
// and credits their growth.
func (s *GrowthService) AwardUpvotes(ctx context.Context, subreddit string, count int64) (*models.GameState, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: upvote count must be positive", models.ErrValidation)
	}
	return s.games.Update(ctx, subreddit, models.GameStateUpdate{
		UpvotesDelta: count,
		GrowthDelta:  growth.UpvoteContribution(count),
	})
}
