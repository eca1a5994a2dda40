package chronicle

import (
	"path/filepath"
	"testing"
	"time"

	"cinnarito/internal/services"
	"cinnarito/internal/storage"
	"cinnarito/internal/structures"
	"cinnarito/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

// Saturday noon UTC.
var epoch = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	mr         *miniredis.Miniredis
	conf       *structures.Config
	clock      *testutil.Clock
	logger     *testutil.MockLogger
	metrics    *testutil.MockMetrics
	poster     *testutil.MockPoster
	games      *storage.GameStateRepository
	chronicles *services.ChronicleService
	archive    *Archive
	scheduler  *Scheduler
}

func newFixture(t *testing.T, configure ...func(*structures.Config)) *fixture {
	t.Helper()
	mr, client := testutil.NewRedis(t)
	conf := testutil.Config()
	conf.Archive.FilePath = filepath.Join(t.TempDir(), "archive", "trees.zst")
	for _, fn := range configure {
		fn(conf)
	}

	f := &fixture{
		mr:      mr,
		conf:    conf,
		clock:   testutil.NewClock(epoch),
		logger:  &testutil.MockLogger{},
		metrics: &testutil.MockMetrics{},
		poster:  &testutil.MockPoster{},
	}
	f.games = storage.NewGameStateRepository(client, conf, f.logger, f.metrics)
	f.games.Now = f.clock.Now

	growth := services.NewGrowthService(f.games, f.logger)
	growth.Now = f.clock.Now
	f.chronicles = services.NewChronicleService(f.games, growth, services.NewRenderer(), f.poster, conf, f.logger, f.metrics)
	f.chronicles.Now = f.clock.Now

	compressor, err := NewArchiveCodec()
	require.NoError(t, err)
	f.archive = NewArchive(conf, f.games, compressor, f.logger, f.metrics)
	f.archive.Now = f.clock.Now
	t.Cleanup(f.archive.Close)

	f.scheduler = NewScheduler(conf, f.logger, f.metrics, f.games, f.chronicles, f.archive)
	f.scheduler.Now = f.clock.Now
	return f
}
