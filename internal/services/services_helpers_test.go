package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"cinnarito/internal/models"
	"cinnarito/internal/storage"
	"cinnarito/internal/structures"
	"cinnarito/internal/testutil"

	"github.com/alicebob/miniredis/v2"
)

var epoch = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type env struct {
	mr         *miniredis.Miniredis
	conf       *structures.Config
	clock      *testutil.Clock
	logger     *testutil.MockLogger
	metrics    *testutil.MockMetrics
	poster     *testutil.MockPoster
	games      *storage.GameStateRepository
	players    *storage.PlayerRepository
	actions    *ActionService
	growth     *GrowthService
	chronicles *ChronicleService
}

func newEnv(t *testing.T, configure ...func(*structures.Config)) *env {
	t.Helper()
	mr, client := testutil.NewRedis(t)
	conf := testutil.Config()
	for _, fn := range configure {
		fn(conf)
	}

	e := &env{
		mr:      mr,
		conf:    conf,
		clock:   testutil.NewClock(epoch),
		logger:  &testutil.MockLogger{},
		metrics: &testutil.MockMetrics{},
		poster:  &testutil.MockPoster{},
	}
	e.games = storage.NewGameStateRepository(client, conf, e.logger, e.metrics)
	e.games.Now = e.clock.Now
	e.players = storage.NewPlayerRepository(client, conf, e.logger, e.metrics)
	e.players.Now = e.clock.Now

	e.growth = NewGrowthService(e.games, e.logger)
	e.growth.Now = e.clock.Now
	e.chronicles = NewChronicleService(e.games, e.growth, NewRenderer(), e.poster, conf, e.logger, e.metrics)
	e.chronicles.Now = e.clock.Now
	e.actions = NewActionService(e.games, e.players, e.chronicles, conf, e.logger, e.metrics)
	e.actions.Now = e.clock.Now
	return e
}

// act performs an action and moves the clock past any cooldown.
func (e *env) act(t *testing.T, user, sub string, action models.ActionType) *models.ActionResult {
	t.Helper()
	res, err := e.actions.Perform(context.Background(), user, sub, action)
	if err != nil {
		t.Fatalf("%s by %s: %v", action, user, err)
	}
	e.clock.Advance(e.conf.Actions.Cooldown(string(action)) + time.Second)
	return res
}

type recordingNotifier struct {
	mu     sync.Mutex
	levels []int
}

func (n *recordingNotifier) NotifyLevelUp(_ context.Context, state *models.GameState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.levels = append(n.levels, state.TreeLevel)
}

func (n *recordingNotifier) calls() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int(nil), n.levels...)
}
