package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinnarito/internal/models"
	"cinnarito/internal/providers"
	"cinnarito/internal/storage"
	"cinnarito/internal/structures"
)

type ChronicleServiceInterface interface {
	Generate(ctx context.Context, subreddit string, kind models.ChronicleType, post bool) (*models.ChronicleResult, error)
	PostCommunityUpdate(ctx context.Context, title, content, subreddit string) *models.PostResult
	NotifyLevelUp(ctx context.Context, state *models.GameState)
	GetSchedules(ctx context.Context, subreddit string) ([]models.ChronicleSchedule, error)
	SetScheduleActive(ctx context.Context, subreddit string, kind models.ChronicleType, active bool) ([]models.ChronicleSchedule, error)
	MarkRun(ctx context.Context, subreddit string, kind models.ChronicleType, ranAt time.Time) error
}

type ChronicleService struct {
	games    storage.GameStateRepositoryInterface
	growth   GrowthServiceInterface
	renderer *Renderer
	poster   PlatformPoster
	retry    storage.RetryPolicy
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface

	Now func() time.Time
}

func NewChronicleService(
	games storage.GameStateRepositoryInterface,
	growth GrowthServiceInterface,
	renderer *Renderer,
	poster PlatformPoster,
	conf *structures.Config,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) *ChronicleService {
	retry := storage.NewRetryPolicy(conf)
	retry.OnRetry = func(err error, next time.Duration) {
		logger.Warnf(providers.TypeApp, "Chronicle generation failed, retrying in %s: %s", next, err)
	}
	return &ChronicleService{
		games:    games,
		growth:   growth,
		renderer: renderer,
		poster:   poster,
		retry:    retry,
		logger:   logger,
		metrics:  metrics,
		Now:      time.Now,
	}
}

// Generate renders a chronicle from the current tree and, when post is set,
// submits it. The whole chain is retried; a post that keeps failing is
// reported in the result rather than as an error.
func (s *ChronicleService) Generate(ctx context.Context, subreddit string, kind models.ChronicleType, post bool) (*models.ChronicleResult, error) {
	if _, err := models.ParseChronicleType(string(kind)); err != nil {
		return nil, err
	}

	var (
		chronicle *models.Chronicle
		postErr   error
	)
	result, err := storage.Retry(ctx, s.retry, func() (*models.ChronicleResult, error) {
		var err error
		chronicle, err = s.render(ctx, subreddit, kind)
		if err != nil {
			return nil, err
		}
		res := &models.ChronicleResult{Success: true, Chronicle: *chronicle}
		if !post {
			return res, nil
		}
		posted, err := s.poster.Submit(ctx, subreddit, chronicle.Title, chronicle.Content)
		if err != nil {
			postErr = err
			return nil, err
		}
		res.Post = posted
		return res, nil
	})

	if err != nil && errors.Is(err, models.ErrPlatform) && chronicle != nil {
		s.metrics.IncChroniclePosts(false)
		s.logger.Errorf(providers.TypeApp, "Failed to post %s chronicle to r/%s: %s", kind, subreddit, postErr)
		return &models.ChronicleResult{
			Success:   false,
			Chronicle: *chronicle,
			Post:      &models.PostResult{Success: false, Error: postErr.Error()},
		}, nil
	}
	if err != nil {
		return nil, err
	}
	if post {
		s.metrics.IncChroniclePosts(true)
		s.logger.Infof(providers.TypeApp, "Posted %s chronicle to r/%s", kind, subreddit)
	}
	return result, nil
}

func (s *ChronicleService) render(ctx context.Context, subreddit string, kind models.ChronicleType) (*models.Chronicle, error) {
	state, err := s.games.Get(ctx, subreddit)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%w: no spirit tree in r/%s", models.ErrNotFound, subreddit)
	}

	date := models.FormatDate(s.Now())
	var stats *models.DailyGrowthStats
	if kind != models.ChronicleMilestone {
		stats, err = s.growth.GetDailyGrowthStats(ctx, subreddit, date)
		if err != nil {
			return nil, err
		}
	}
	return s.renderer.Render(kind, ChronicleContext(state, stats, date))
}

// PostCommunityUpdate submits an arbitrary post. Failures come back in the
// result, never as an error.
func (s *ChronicleService) PostCommunityUpdate(ctx context.Context, title, content, subreddit string) *models.PostResult {
	res, err := s.poster.Submit(ctx, subreddit, title, content)
	if err != nil {
		s.metrics.IncChroniclePosts(false)
		s.logger.Errorf(providers.TypeApp, "Community update to r/%s failed: %s", subreddit, err)
		return &models.PostResult{Success: false, Error: err.Error()}
	}
	s.metrics.IncChroniclePosts(true)
	return res
}

func (s *ChronicleService) NotifyLevelUp(ctx context.Context, state *models.GameState) {
	res, err := s.Generate(ctx, state.SubredditName, models.ChronicleMilestone, true)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Milestone chronicle for r/%s failed: %s", state.SubredditName, err)
		return
	}
	if !res.Success {
		s.logger.Warnf(providers.TypeApp, "Milestone chronicle for r/%s was not posted", state.SubredditName)
	}
}

// GetSchedules returns the subreddit's schedules, creating the active daily
// and weekly defaults on first sight.
func (s *ChronicleService) GetSchedules(ctx context.Context, subreddit string) ([]models.ChronicleSchedule, error) {
	schedules, err := s.games.GetSchedules(ctx, subreddit)
	if err != nil {
		return nil, err
	}
	if len(schedules) > 0 {
		return schedules, nil
	}

	now := s.Now().UTC()
	schedules = []models.ChronicleSchedule{
		{SubredditName: subreddit, Type: models.ChronicleDaily, NextRunTime: NextRun(models.ChronicleDaily, now), IsActive: true},
		{SubredditName: subreddit, Type: models.ChronicleWeekly, NextRunTime: NextRun(models.ChronicleWeekly, now), IsActive: true},
	}
	if err := s.games.SaveSchedules(ctx, subreddit, schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (s *ChronicleService) SetScheduleActive(ctx context.Context, subreddit string, kind models.ChronicleType, active bool) ([]models.ChronicleSchedule, error) {
	if kind != models.ChronicleDaily && kind != models.ChronicleWeekly {
		return nil, fmt.Errorf("%w: only daily and weekly chronicles are scheduled", models.ErrValidation)
	}
	return s.updateSchedule(ctx, subreddit, kind, func(sc *models.ChronicleSchedule) {
		sc.IsActive = active
		if active && sc.NextRunTime.Before(s.Now()) {
			sc.NextRunTime = NextRun(kind, s.Now().UTC())
		}
	})
}

// MarkRun records a successful run and moves the schedule to its next slot.
func (s *ChronicleService) MarkRun(ctx context.Context, subreddit string, kind models.ChronicleType, ranAt time.Time) error {
	_, err := s.updateSchedule(ctx, subreddit, kind, func(sc *models.ChronicleSchedule) {
		at := ranAt.UTC()
		sc.LastRunTime = &at
		sc.NextRunTime = NextRun(kind, at)
	})
	return err
}

func (s *ChronicleService) updateSchedule(ctx context.Context, subreddit string, kind models.ChronicleType, fn func(*models.ChronicleSchedule)) ([]models.ChronicleSchedule, error) {
	schedules, err := s.GetSchedules(ctx, subreddit)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range schedules {
		if schedules[i].Type == kind {
			fn(&schedules[i])
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s schedule for r/%s", models.ErrNotFound, kind, subreddit)
	}
	if err := s.games.SaveSchedules(ctx, subreddit, schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// NextRun is the next UTC midnight for daily chronicles and the next Monday
// UTC midnight for weekly ones, strictly after t.
func NextRun(kind models.ChronicleType, t time.Time) time.Time {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if kind != models.ChronicleWeekly {
		return midnight.AddDate(0, 0, 1)
	}
	days := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return midnight.AddDate(0, 0, days)
}
