package chronicle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cinnarito/internal/chronicle/interfaces"
	"cinnarito/internal/models"
	"cinnarito/internal/providers"
	"cinnarito/internal/services"
	"cinnarito/internal/storage"
	"cinnarito/internal/structures"

	"github.com/go-co-op/gocron/v2"
)

const defaultTickInterval = time.Minute

type Scheduler struct {
	config     *structures.Config
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
	games      storage.GameStateRepositoryInterface
	chronicles services.ChronicleServiceInterface
	archive    *Archive

	mu      sync.Mutex
	cron    gocron.Scheduler
	cancel  context.CancelFunc
	running bool
	opsMu   sync.Mutex

	Now func() time.Time
}

func NewScheduler(
	config *structures.Config,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
	games storage.GameStateRepositoryInterface,
	chronicles services.ChronicleServiceInterface,
	archive *Archive,
) *Scheduler {
	return &Scheduler{
		config:     config,
		logger:     logger,
		metrics:    metrics,
		games:      games,
		chronicles: chronicles,
		archive:    archive,
		Now:        time.Now,
	}
}

var _ interfaces.SchedulerInterface = (*Scheduler)(nil)

func (s *Scheduler) tickInterval() time.Duration {
	if s.config.Chronicle.TickInterval <= 0 {
		return defaultTickInterval
	}
	return s.config.Chronicle.TickInterval
}

// Start arms the chronicle tick and, when an archive is configured, the
// periodic snapshot job. Starting a running scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Infof(providers.TypeApp, "Chronicle scheduler already running")
		return nil
	}

	cron, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())

	_, err = cron.NewJob(
		gocron.DurationJob(s.tickInterval()),
		gocron.NewTask(func() { s.Tick(ctx) }),
		gocron.WithName("chronicle-tick"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		cancel()
		return fmt.Errorf("schedule chronicle tick: %w", err)
	}

	if s.archive.Enabled() && s.config.Archive.Interval > 0 {
		_, err = cron.NewJob(
			gocron.DurationJob(s.config.Archive.Interval),
			gocron.NewTask(func() {
				if err := s.Persist(); err != nil {
					s.logger.Errorf(providers.TypeApp, "Error while archiving spirit trees: %s", err)
				}
			}),
			gocron.WithName("archive"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			cancel()
			return fmt.Errorf("schedule archive: %w", err)
		}
	}

	cron.Start()
	s.cron = cron
	s.cancel = cancel
	s.running = true
	s.logger.Infof(providers.TypeApp, "Chronicle scheduler started, tick every %s", s.tickInterval())
	return nil
}

// Stop clears the jobs. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Infof(providers.TypeApp, "Chronicle scheduler already stopped")
		return nil
	}

	s.cancel()
	err := s.cron.Shutdown()
	s.cron = nil
	s.running = false
	s.logger.Infof(providers.TypeApp, "Chronicle scheduler stopped")
	return err
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Tick generates and posts every due chronicle across the registered
// subreddits. It returns how many chronicles were posted.
func (s *Scheduler) Tick(ctx context.Context) int {
	subreddits, err := s.games.ListSubreddits(ctx)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Chronicle tick could not list subreddits: %s", err)
		return 0
	}
	s.metrics.SetSubredditsTotal(len(subreddits))

	posted := 0
	for _, sub := range subreddits {
		if ctx.Err() != nil {
			break
		}
		if !s.stillPlanted(ctx, sub) {
			continue
		}
		schedules, err := s.chronicles.GetSchedules(ctx, sub)
		if err != nil {
			s.logger.Errorf(providers.TypeApp, "Failed to load chronicle schedules for r/%s: %s", sub, err)
			continue
		}
		now := s.Now()
		for _, sc := range schedules {
			if !sc.Due(now) {
				continue
			}
			if s.run(ctx, sub, sc.Type, now) {
				posted++
			}
		}
	}
	if posted > 0 {
		s.logger.Infof(providers.TypeApp, "Chronicle tick posted %d chronicles", posted)
	}
	return posted
}

// stillPlanted drops registry entries whose tree no longer exists, so they
// stop being visited on every tick.
func (s *Scheduler) stillPlanted(ctx context.Context, subreddit string) bool {
	state, err := s.games.Get(ctx, subreddit)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Failed to load spirit tree for r/%s: %s", subreddit, err)
		return false
	}
	if state != nil {
		return true
	}
	if err := s.games.UnregisterSubreddit(ctx, subreddit); err != nil {
		s.logger.Errorf(providers.TypeApp, "Failed to unregister r/%s: %s", subreddit, err)
		return false
	}
	s.logger.Warnf(providers.TypeApp, "Unregistered r/%s: no spirit tree stored", subreddit)
	return false
}

func (s *Scheduler) run(ctx context.Context, subreddit string, kind models.ChronicleType, now time.Time) bool {
	res, err := s.chronicles.Generate(ctx, subreddit, kind, true)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Failed to generate %s chronicle for r/%s: %s", kind, subreddit, err)
		return false
	}
	if !res.Success {
		return false
	}
	if err := s.chronicles.MarkRun(ctx, subreddit, kind, now); err != nil {
		s.logger.Errorf(providers.TypeApp, "Posted %s chronicle for r/%s but failed to advance its schedule: %s", kind, subreddit, err)
	}
	return true
}

// TriggerForSubreddit generates and posts a chronicle right away. A
// successful scheduled type also counts as that schedule's run.
func (s *Scheduler) TriggerForSubreddit(ctx context.Context, subreddit string, kind models.ChronicleType) (*models.ChronicleResult, error) {
	res, err := s.chronicles.Generate(ctx, subreddit, kind, true)
	if err != nil {
		return nil, err
	}
	if res.Success && kind != models.ChronicleMilestone {
		if err := s.chronicles.MarkRun(ctx, subreddit, kind, s.Now()); err != nil {
			s.logger.Warnf(providers.TypeApp, "Failed to advance %s schedule for r/%s: %s", kind, subreddit, err)
		}
	}
	return res, nil
}

func (s *Scheduler) Restore() error {
	n, err := s.archive.LoadFromFile(context.Background())
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Infof(providers.TypeApp, "Re-seeded %d subreddits from archive", n)
	}
	return nil
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	if err := s.archive.SaveToFile(context.Background()); err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting archive: %s", err)
		return err
	}
	return nil
}
