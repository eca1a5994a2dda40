package storage

import (
	"testing"
	"time"

	"cinnarito/internal/structures"
	"cinnarito/internal/testutil"

	"github.com/alicebob/miniredis/v2"
)

var epoch = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	mr      *miniredis.Miniredis
	games   *GameStateRepository
	players *PlayerRepository
	clock   *testutil.Clock
	metrics *testutil.MockMetrics
	logger  *testutil.MockLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr, client := testutil.NewRedis(t)
	conf := testutil.Config()
	logger := &testutil.MockLogger{}
	metrics := &testutil.MockMetrics{}
	clock := testutil.NewClock(epoch)

	games := NewGameStateRepository(client, conf, logger, metrics)
	games.Now = clock.Now
	players := NewPlayerRepository(client, conf, logger, metrics)
	players.Now = clock.Now

	return &fixture{mr: mr, games: games, players: players, clock: clock, metrics: metrics, logger: logger}
}

func testConf() *structures.Config {
	return testutil.Config()
}
