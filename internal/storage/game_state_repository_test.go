package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cinnarito/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameState_GetMissingReturnsNil(t *testing.T) {
	f := newFixture(t)
	state, err := f.games.Get(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestGameState_InitializeCreatesLevelOne(t *testing.T) {
	f := newFixture(t)
	state, err := f.games.Initialize(context.Background(), "cats")
	require.NoError(t, err)

	assert.Equal(t, "cats", state.SubredditName)
	assert.Equal(t, 1, state.TreeLevel)
	assert.Zero(t, state.TotalGrowth)
	assert.Zero(t, state.SeedsPlanted)
	assert.True(t, state.CreatedAt.Equal(epoch))

	subs, err := f.games.ListSubreddits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cats"}, subs)
}

func TestGameState_InitializeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.games.Initialize(ctx, "cats")
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	second, err := f.games.Initialize(ctx, "cats")
	require.NoError(t, err)

	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.Equal(t, first.Version, second.Version)
}

func TestGameState_InitializeRejectsEmptyName(t *testing.T) {
	f := newFixture(t)
	_, err := f.games.Initialize(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestGameState_UpdateMissingIsNotFound(t *testing.T) {
	f := newFixture(t)
	growth := 10.0
	_, err := f.games.Update(context.Background(), "ghost", models.GameStateUpdate{TotalGrowth: &growth})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGameState_UpdateRecomputesLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.games.Initialize(ctx, "cats")
	require.NoError(t, err)

	growth := 150.0
	state, err := f.games.Update(ctx, "cats", models.GameStateUpdate{TotalGrowth: &growth})
	require.NoError(t, err)
	assert.Equal(t, 3, state.TreeLevel)
	assert.Equal(t, int64(1), state.Version)

	stored, err := f.games.Get(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.TreeLevel)
	assert.Equal(t, 150.0, stored.TotalGrowth)
}

func TestGameState_UpdateNeverLowersGrowth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.games.Initialize(ctx, "cats")
	require.NoError(t, err)

	high, low := 60.0, 10.0
	_, err = f.games.Update(ctx, "cats", models.GameStateUpdate{TotalGrowth: &high})
	require.NoError(t, err)
	state, err := f.games.Update(ctx, "cats", models.GameStateUpdate{TotalGrowth: &low})
	require.NoError(t, err)

	assert.Equal(t, 60.0, state.TotalGrowth)
	assert.Equal(t, 2, state.TreeLevel)
}

func TestGameState_ConcurrentUpdatesAreNotLost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.games.Initialize(ctx, "cats")
	require.NoError(t, err)
	f.games.casAttempts = 100

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.games.Update(ctx, "cats", models.ActionUpdate(models.ActionFeed, 2))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := f.games.Get(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, int64(20), state.SpiritsFed)
	assert.Equal(t, 40.0, state.TotalGrowth)
	assert.Equal(t, int64(20), state.Version)
}

func TestGameState_RecordActionUpdatesCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.games.Initialize(ctx, "cats")
	require.NoError(t, err)

	entry, state, err := f.games.RecordAction(ctx, models.ActionHistory{
		Username:          "alice",
		SubredditName:     "cats",
		ActionType:        models.ActionPlant,
		ResourcesSpent:    5,
		GrowthContributed: 1.5,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.True(t, entry.Timestamp.Equal(epoch))
	assert.Equal(t, int64(1), state.SeedsPlanted)
	assert.Equal(t, 1.5, state.TotalGrowth)
	assert.Equal(t, 1, state.TreeLevel)

	history, err := f.games.GetActionHistory(ctx, "cats", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entry.ID, history[0].ID)
}

func TestGameState_RecordActionRejectsInvalidEntry(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.games.RecordAction(context.Background(), models.ActionHistory{
		SubredditName: "cats",
		ActionType:    models.ActionPlant,
	})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestGameState_HistoryIsCappedNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.games.Initialize(ctx, "cats")
	require.NoError(t, err)

	var firstID string
	for i := 0; i < 1001; i++ {
		entry, _, err := f.games.RecordAction(ctx, models.ActionHistory{
			Username:      fmt.Sprintf("user%d", i),
			SubredditName: "cats",
			ActionType:    models.ActionPost,
		})
		require.NoError(t, err)
		if i == 0 {
			firstID = entry.ID
		}
	}

	history, err := f.games.GetActionHistory(ctx, "cats", 0)
	require.NoError(t, err)
	require.Len(t, history, 1000)
	assert.Equal(t, "user1000", history[0].Username)
	assert.Equal(t, "user1", history[999].Username)
	for _, h := range history {
		assert.NotEqual(t, firstID, h.ID)
	}
}

func TestGameState_HistoryLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.games.Initialize(ctx, "cats")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, _, err := f.games.RecordAction(ctx, models.ActionHistory{
			Username: "alice", SubredditName: "cats", ActionType: models.ActionPost,
		})
		require.NoError(t, err)
	}

	history, err := f.games.GetActionHistory(ctx, "cats", 3)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	empty, err := f.games.GetActionHistory(ctx, "dogs", 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGameState_ActivePlayersWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.games.TrackActivePlayer(ctx, "cats", "alice"))
	require.NoError(t, f.games.TrackActivePlayer(ctx, "cats", "bob"))
	require.NoError(t, f.games.TrackActivePlayer(ctx, "cats", "alice"))

	count, err := f.games.GetActivePlayerCount(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	f.clock.Advance(45 * time.Minute)
	require.NoError(t, f.games.TrackActivePlayer(ctx, "cats", "carol"))
	f.clock.Advance(30 * time.Minute)

	count, err = f.games.GetActivePlayerCount(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGameState_CooldownLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	onCooldown, err := f.games.CheckActionCooldown(ctx, "alice", "cats", "")
	require.NoError(t, err)
	assert.False(t, onCooldown)

	require.NoError(t, f.games.SetActionCooldown(ctx, "alice", "cats", "", time.Minute))

	onCooldown, err = f.games.CheckActionCooldown(ctx, "alice", "cats", "")
	require.NoError(t, err)
	assert.True(t, onCooldown)

	f.clock.Advance(20 * time.Second)
	remaining, err := f.games.CooldownRemaining(ctx, "alice", "cats", "")
	require.NoError(t, err)
	assert.Equal(t, 40*time.Second, remaining)

	f.clock.Advance(41 * time.Second)
	onCooldown, err = f.games.CheckActionCooldown(ctx, "alice", "cats", "")
	require.NoError(t, err)
	assert.False(t, onCooldown)
	assert.False(t, f.mr.Exists(f.games.keys.Cooldown("alice", "cats", "")))
}

func TestGameState_CooldownScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.games.SetActionCooldown(ctx, "alice", "cats", "plant", time.Minute))

	plant, err := f.games.CheckActionCooldown(ctx, "alice", "cats", "plant")
	require.NoError(t, err)
	feed, err := f.games.CheckActionCooldown(ctx, "alice", "cats", "feed")
	require.NoError(t, err)
	other, err := f.games.CheckActionCooldown(ctx, "alice", "dogs", "plant")
	require.NoError(t, err)

	assert.True(t, plant)
	assert.False(t, feed)
	assert.False(t, other)
}

func TestGameState_CooldownKeyExpiresInRedis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.games.SetActionCooldown(ctx, "alice", "cats", "", time.Minute))

	f.mr.FastForward(time.Minute + time.Second)
	assert.False(t, f.mr.Exists(f.games.keys.Cooldown("alice", "cats", "")))
}

func TestGameState_DailyStatsFirstWriteWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := &models.DailyGrowthStats{SubredditName: "cats", Date: "2026-03-14", SeedsPlanted: 3, TotalGrowth: 4.5, CreatedAt: epoch}
	stored, created, err := f.games.SaveDailyStatsOnce(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(3), stored.SeedsPlanted)

	raw, err := f.mr.Get(f.games.keys.Daily("cats", "2026-03-14"))
	require.NoError(t, err)

	second := &models.DailyGrowthStats{SubredditName: "cats", Date: "2026-03-14", SeedsPlanted: 9, TotalGrowth: 13.5, CreatedAt: epoch.Add(time.Hour)}
	stored, created, err = f.games.SaveDailyStatsOnce(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(3), stored.SeedsPlanted)

	after, err := f.mr.Get(f.games.keys.Daily("cats", "2026-03-14"))
	require.NoError(t, err)
	assert.Equal(t, raw, after)
}

func TestGameState_DailyStatsRangeSkipsMissingDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, d := range []string{"2026-03-12", "2026-03-14"} {
		_, _, err := f.games.SaveDailyStatsOnce(ctx, &models.DailyGrowthStats{SubredditName: "cats", Date: d})
		require.NoError(t, err)
	}

	stats, err := f.games.GetDailyStatsRange(ctx, "cats", []string{"2026-03-14", "2026-03-13", "2026-03-12"})
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "2026-03-14", stats[0].Date)
	assert.Equal(t, "2026-03-12", stats[1].Date)

	missing, err := f.games.GetDailyStats(ctx, "cats", "2026-03-13")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGameState_DailyStatsRejectsBadDate(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.games.SaveDailyStatsOnce(context.Background(), &models.DailyGrowthStats{SubredditName: "cats", Date: "14/03/2026"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestGameState_CorruptRecordIsValidationError(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.mr.Set(f.games.keys.State("cats"), `{"subredditName":"cats","treeLevel":9}`))

	_, err := f.games.Get(context.Background(), "cats")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestGameState_SchedulesRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.games.GetSchedules(ctx, "cats")
	require.NoError(t, err)
	assert.Nil(t, empty)

	in := []models.ChronicleSchedule{
		{SubredditName: "cats", Type: models.ChronicleDaily, NextRunTime: epoch, IsActive: true},
		{SubredditName: "cats", Type: models.ChronicleWeekly, NextRunTime: epoch.Add(24 * time.Hour)},
	}
	require.NoError(t, f.games.SaveSchedules(ctx, "cats", in))

	out, err := f.games.GetSchedules(ctx, "cats")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, models.ChronicleWeekly, out[1].Type)
	assert.True(t, out[0].NextRunTime.Equal(epoch))
}

func TestGameState_SubredditRegistry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.games.RegisterSubreddit(ctx, "zebra"))
	require.NoError(t, f.games.RegisterSubreddit(ctx, "apple"))
	require.NoError(t, f.games.RegisterSubreddit(ctx, "apple"))

	subs, err := f.games.ListSubreddits(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "zebra"}, subs)

	require.NoError(t, f.games.SaveSchedules(ctx, "zebra", []models.ChronicleSchedule{{SubredditName: "zebra", Type: models.ChronicleDaily, NextRunTime: epoch, IsActive: true}}))
	require.NoError(t, f.games.UnregisterSubreddit(ctx, "zebra"))
	subs, err = f.games.ListSubreddits(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple"}, subs)
	assert.False(t, f.mr.Exists(f.games.keys.Schedules("zebra")))
}

func TestGameState_SeedKeepsExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.games.Initialize(ctx, "cats")
	require.NoError(t, err)

	restored := models.NewGameState("cats", epoch)
	restored.TotalGrowth = 500
	restored.TreeLevel = 5
	created, err := f.games.Seed(ctx, restored)
	require.NoError(t, err)
	assert.False(t, created)

	other := models.NewGameState("dogs", epoch)
	created, err = f.games.Seed(ctx, other)
	require.NoError(t, err)
	assert.True(t, created)

	state, err := f.games.Get(ctx, "cats")
	require.NoError(t, err)
	assert.Zero(t, state.TotalGrowth)
}

func TestGameState_SeedDerivesLevelFromGrowth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stale := models.NewGameState("cats", epoch)
	stale.TreeLevel = 5
	created, err := f.games.Seed(ctx, stale)
	require.NoError(t, err)
	require.True(t, created)

	grown := models.NewGameState("dogs", epoch)
	grown.TotalGrowth = 150.004
	grown.TreeLevel = 1
	_, err = f.games.Seed(ctx, grown)
	require.NoError(t, err)

	state, err := f.games.Get(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, 1, state.TreeLevel)
	assert.Equal(t, 5, stale.TreeLevel)

	state, err = f.games.Get(ctx, "dogs")
	require.NoError(t, err)
	assert.Equal(t, 150.0, state.TotalGrowth)
	assert.Equal(t, 3, state.TreeLevel)
}

func TestGameState_UnavailableStoreSurfacesConnectionError(t *testing.T) {
	f := newFixture(t)
	f.mr.Close()

	_, err := f.games.Get(context.Background(), "cats")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "connection error")
	assert.Equal(t, 2, f.metrics.StoreRetries)
}
