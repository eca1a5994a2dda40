package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cinnarito/internal/growth"
	"cinnarito/internal/models"
	"cinnarito/internal/providers"
	"cinnarito/internal/storage"
	"cinnarito/internal/structures"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100

	collectScope           = "collect"
	defaultCollectAmount   = 25
	defaultCollectCooldown = 10 * time.Minute
)

type ActionServiceInterface interface {
	Init(ctx context.Context, username, subreddit string) (*models.InitResult, error)
	Perform(ctx context.Context, username, subreddit string, action models.ActionType) (*models.ActionResult, error)
	Collect(ctx context.Context, username, subreddit string) (*models.ActionResult, error)
	GetState(ctx context.Context, subreddit string) (*models.GameState, error)
	GetPlayer(ctx context.Context, username, subreddit string) (*models.PlayerResources, error)
	GetHistory(ctx context.Context, subreddit string, limit int) ([]models.ActionHistory, error)
}

// MilestoneNotifier is told when an action lifts a tree to a new level.
type MilestoneNotifier interface {
	NotifyLevelUp(ctx context.Context, state *models.GameState)
}

type ActionService struct {
	games    storage.GameStateRepositoryInterface
	players  storage.PlayerRepositoryInterface
	notifier MilestoneNotifier
	conf     *structures.Config
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface

	pending sync.WaitGroup
	Now     func() time.Time
}

func NewActionService(
	games storage.GameStateRepositoryInterface,
	players storage.PlayerRepositoryInterface,
	notifier MilestoneNotifier,
	conf *structures.Config,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) *ActionService {
	return &ActionService{
		games:    games,
		players:  players,
		notifier: notifier,
		conf:     conf,
		logger:   logger,
		metrics:  metrics,
		Now:      time.Now,
	}
}

func validateNames(username, subreddit string) error {
	if strings.TrimSpace(subreddit) == "" {
		return fmt.Errorf("%w: subreddit name is required", models.ErrValidation)
	}
	if strings.TrimSpace(username) == "" {
		return models.ErrUnauthenticated
	}
	return nil
}

// session lazily creates the subreddit tree and the player's wallet.
func (s *ActionService) session(ctx context.Context, username, subreddit string) (*models.GameState, *models.PlayerResources, error) {
	state, err := s.games.Initialize(ctx, subreddit)
	if err != nil {
		return nil, nil, err
	}
	player, err := s.players.Initialize(ctx, username, subreddit)
	if err != nil {
		return nil, nil, err
	}
	return state, player, nil
}

func (s *ActionService) Init(ctx context.Context, username, subreddit string) (*models.InitResult, error) {
	if err := validateNames(username, subreddit); err != nil {
		return nil, err
	}
	state, _, err := s.session(ctx, username, subreddit)
	if err != nil {
		return nil, err
	}

	if err := s.games.TrackActivePlayer(ctx, subreddit, username); err != nil {
		s.logger.Warnf(providers.TypeApp, "Failed to track active player %s in r/%s: %s", username, subreddit, err)
	}
	now := s.Now().UTC()
	player, err := s.players.Update(ctx, username, subreddit, models.PlayerUpdate{LastActive: &now})
	if err != nil {
		return nil, err
	}
	active, err := s.games.GetActivePlayerCount(ctx, subreddit)
	if err != nil {
		return nil, err
	}
	caretakers, err := s.players.ListPlayers(ctx, subreddit)
	if err != nil {
		return nil, err
	}

	return &models.InitResult{
		Success:         true,
		Username:        username,
		GameState:       state,
		PlayerResources: player,
		ActivePlayers:   active,
		TotalPlayers:    len(caretakers),
	}, nil
}

func (s *ActionService) cooldownScope(action string) string {
	if s.conf.Actions.PerAction() {
		return action
	}
	return ""
}

// Perform runs one action through affordability and cooldown guards, debits
// the cost, records the action and arms the cooldown. A failure after the
// debit is not compensated; it is logged with the action context.
func (s *ActionService) Perform(ctx context.Context, username, subreddit string, action models.ActionType) (*models.ActionResult, error) {
	if err := validateNames(username, subreddit); err != nil {
		return nil, err
	}
	if !action.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownAction, action)
	}

	res, err := s.perform(ctx, username, subreddit, action)
	switch {
	case err == nil:
		s.metrics.IncActions(string(action), "success")
	case errors.Is(err, models.ErrInsufficientResources), errors.Is(err, models.ErrOnCooldown):
		s.metrics.IncActions(string(action), "rejected")
	default:
		s.metrics.IncActions(string(action), "error")
	}
	return res, err
}

func (s *ActionService) perform(ctx context.Context, username, subreddit string, action models.ActionType) (*models.ActionResult, error) {
	_, player, err := s.session(ctx, username, subreddit)
	if err != nil {
		return nil, err
	}

	cost := s.conf.Actions.Cost(string(action))
	if player.Cinnamon < cost {
		return nil, fmt.Errorf("%w: %s costs %d cinnamon, you have %d", models.ErrInsufficientResources, action, cost, player.Cinnamon)
	}

	scope := s.cooldownScope(string(action))
	remaining, err := s.games.CooldownRemaining(ctx, username, subreddit, scope)
	if err != nil {
		return nil, err
	}
	if remaining > 0 {
		return nil, &models.CooldownError{Remaining: remaining}
	}

	player, err = s.players.SpendCinnamon(ctx, username, subreddit, cost)
	if err != nil {
		return nil, err
	}

	contribution := growth.Contribution(action)
	entry, state, recordErr := s.games.RecordAction(ctx, models.ActionHistory{
		Username:          username,
		SubredditName:     subreddit,
		ActionType:        action,
		ResourcesSpent:    cost,
		GrowthContributed: contribution,
	})

	ttl := s.conf.Actions.Cooldown(string(action))
	if err := s.games.SetActionCooldown(ctx, username, subreddit, scope, ttl); err != nil {
		s.logger.Errorf(providers.TypeApp, "Failed to set cooldown for %s in r/%s: %s", username, subreddit, err)
	}
	if err := s.games.TrackActivePlayer(ctx, subreddit, username); err != nil {
		s.logger.Warnf(providers.TypeApp, "Failed to track active player %s in r/%s: %s", username, subreddit, err)
	}

	if recordErr != nil {
		actionID := ""
		if entry != nil {
			actionID = entry.ID
		}
		s.logger.Errorf(providers.TypeApp, "Action %s by %s in r/%s debited %d cinnamon but was not recorded (id=%q): %s",
			action, username, subreddit, cost, actionID, recordErr)
		return nil, recordErr
	}

	leveledUp := growth.ComputeLevel(growth.Round2(state.TotalGrowth-contribution)) < state.TreeLevel
	if leveledUp {
		s.logger.Infof(providers.TypeApp, "r/%s Spirit Tree reached level %d", subreddit, state.TreeLevel)
		s.notifyLevelUp(ctx, state)
	}

	return &models.ActionResult{
		Success:         true,
		Message:         actionMessage(action, contribution),
		GameState:       state,
		PlayerResources: player,
		Action:          entry,
		CooldownSeconds: int(ttl.Seconds()),
		LeveledUp:       leveledUp,
	}, nil
}

func (s *ActionService) notifyLevelUp(ctx context.Context, state *models.GameState) {
	if s.notifier == nil || !s.conf.Chronicle.MilestonePosts {
		return
	}
	snapshot := *state
	bg := context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.notifier.NotifyLevelUp(bg, &snapshot)
	}()
}

// Drain waits for in-flight milestone notifications.
func (s *ActionService) Drain() {
	s.pending.Wait()
}

func actionMessage(action models.ActionType, contribution float64) string {
	switch action {
	case models.ActionPlant:
		return fmt.Sprintf("You planted a cinnamon seed! +%g growth", contribution)
	case models.ActionFeed:
		return fmt.Sprintf("The forest spirits are fed! +%g growth", contribution)
	case models.ActionCharge:
		return fmt.Sprintf("The garden robot hums with energy! +%g growth", contribution)
	default:
		return "Thanks for sharing with the grove!"
	}
}

// Collect grants a fixed cinnamon amount, limited by its own cooldown.
func (s *ActionService) Collect(ctx context.Context, username, subreddit string) (*models.ActionResult, error) {
	if err := validateNames(username, subreddit); err != nil {
		return nil, err
	}
	state, _, err := s.session(ctx, username, subreddit)
	if err != nil {
		return nil, err
	}

	remaining, err := s.games.CooldownRemaining(ctx, username, subreddit, collectScope)
	if err != nil {
		return nil, err
	}
	if remaining > 0 {
		s.metrics.IncActions(collectScope, "rejected")
		return nil, &models.CooldownError{Remaining: remaining}
	}

	amount := s.conf.Actions.CollectAmount
	if amount <= 0 {
		amount = defaultCollectAmount
	}
	ttl := s.conf.Actions.CollectCooldown
	if ttl <= 0 {
		ttl = defaultCollectCooldown
	}

	now := s.Now().UTC()
	player, err := s.players.Update(ctx, username, subreddit, models.PlayerUpdate{CinnamonDelta: amount, LastActive: &now})
	if err != nil {
		s.metrics.IncActions(collectScope, "error")
		return nil, err
	}
	if err := s.games.SetActionCooldown(ctx, username, subreddit, collectScope, ttl); err != nil {
		s.logger.Errorf(providers.TypeApp, "Failed to set collect cooldown for %s in r/%s: %s", username, subreddit, err)
	}
	if err := s.games.TrackActivePlayer(ctx, subreddit, username); err != nil {
		s.logger.Warnf(providers.TypeApp, "Failed to track active player %s in r/%s: %s", username, subreddit, err)
	}
	s.metrics.IncActions(collectScope, "success")

	return &models.ActionResult{
		Success:         true,
		Message:         fmt.Sprintf("You gathered %d cinnamon", amount),
		GameState:       state,
		PlayerResources: player,
		CooldownSeconds: int(ttl.Seconds()),
	}, nil
}

func (s *ActionService) GetState(ctx context.Context, subreddit string) (*models.GameState, error) {
	state, err := s.games.Get(ctx, subreddit)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%w: no spirit tree in r/%s", models.ErrNotFound, subreddit)
	}
	return state, nil
}

func (s *ActionService) GetPlayer(ctx context.Context, username, subreddit string) (*models.PlayerResources, error) {
	if err := validateNames(username, subreddit); err != nil {
		return nil, err
	}
	player, err := s.players.Get(ctx, username, subreddit)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, fmt.Errorf("%w: player %s in r/%s", models.ErrNotFound, username, subreddit)
	}
	return player, nil
}

func (s *ActionService) GetHistory(ctx context.Context, subreddit string, limit int) ([]models.ActionHistory, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)
	return s.games.GetActionHistory(ctx, subreddit, limit)
}
