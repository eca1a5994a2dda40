package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"cinnarito/internal/models"
	"cinnarito/internal/providers"
)

// --- local mocks (scoped to controller tests) ---

type mockLogger struct{}

func (m *mockLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Close()                                                  {}

type mockCache struct {
	data map[string][]byte
}

func newMockCache() *mockCache                     { return &mockCache{data: make(map[string][]byte)} }
func (m *mockCache) Get(key string) ([]byte, bool) { v, ok := m.data[key]; return v, ok }
func (m *mockCache) Set(key string, value []byte)  { m.data[key] = value }
func (m *mockCache) Del(key string)                { delete(m.data, key) }

type performCall struct {
	username  string
	subreddit string
	action    models.ActionType
}

type mockActionService struct {
	err        error
	state      *models.GameState
	player     *models.PlayerResources
	history    []models.ActionHistory
	stateCalls int
	performs   []performCall
	limit      int
	onState    func()
}

func (m *mockActionService) Init(_ context.Context, username, _ string) (*models.InitResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.InitResult{Success: true, Username: username, GameState: m.state, PlayerResources: m.player, ActivePlayers: 1}, nil
}

func (m *mockActionService) Perform(_ context.Context, username, subreddit string, action models.ActionType) (*models.ActionResult, error) {
	m.performs = append(m.performs, performCall{username, subreddit, action})
	if m.err != nil {
		return nil, m.err
	}
	return &models.ActionResult{Success: true, GameState: m.state, PlayerResources: m.player, CooldownSeconds: 60}, nil
}

func (m *mockActionService) Collect(_ context.Context, _, _ string) (*models.ActionResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.ActionResult{Success: true, PlayerResources: m.player}, nil
}

func (m *mockActionService) GetState(_ context.Context, _ string) (*models.GameState, error) {
	m.stateCalls++
	if m.onState != nil {
		m.onState()
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockActionService) GetPlayer(_ context.Context, _, _ string) (*models.PlayerResources, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.player, nil
}

func (m *mockActionService) GetHistory(_ context.Context, _ string, limit int) ([]models.ActionHistory, error) {
	m.limit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.history, nil
}

type mockGrowthService struct {
	err     error
	state   *models.GameState
	stats   *models.DailyGrowthStats
	date    string
	days    int
	upvotes int64
}

func (m *mockGrowthService) GetDailyGrowthStats(_ context.Context, _, date string) (*models.DailyGrowthStats, error) {
	m.date = date
	return m.stats, m.err
}

func (m *mockGrowthService) CalculateGrowth(_ context.Context, _ string) (*models.GrowthCalculation, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.GrowthCalculation{GameState: m.state, DailyStats: m.stats, Computed: m.state.TotalGrowth}, nil
}

func (m *mockGrowthService) GetGrowthHistory(_ context.Context, _ string, days int) ([]models.DailyGrowthStats, error) {
	m.days = days
	if m.err != nil {
		return nil, m.err
	}
	return []models.DailyGrowthStats{*m.stats}, nil
}

func (m *mockGrowthService) AwardUpvotes(_ context.Context, _ string, count int64) (*models.GameState, error) {
	m.upvotes = count
	return m.state, m.err
}

type mockChronicleService struct {
	err       error
	generated []models.ChronicleType
	schedules []models.ChronicleSchedule
	toggled   map[models.ChronicleType]bool
}

func (m *mockChronicleService) Generate(_ context.Context, _ string, kind models.ChronicleType, _ bool) (*models.ChronicleResult, error) {
	m.generated = append(m.generated, kind)
	if m.err != nil {
		return nil, m.err
	}
	return &models.ChronicleResult{Success: true, Chronicle: models.Chronicle{Type: kind, Title: "t", Content: "c"}}, nil
}

func (m *mockChronicleService) PostCommunityUpdate(_ context.Context, _, _, _ string) *models.PostResult {
	return &models.PostResult{Success: true}
}

func (m *mockChronicleService) NotifyLevelUp(_ context.Context, _ *models.GameState) {}

func (m *mockChronicleService) GetSchedules(_ context.Context, _ string) ([]models.ChronicleSchedule, error) {
	return m.schedules, m.err
}

func (m *mockChronicleService) SetScheduleActive(_ context.Context, _ string, kind models.ChronicleType, active bool) ([]models.ChronicleSchedule, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.toggled == nil {
		m.toggled = make(map[models.ChronicleType]bool)
	}
	m.toggled[kind] = active
	return m.schedules, nil
}

func (m *mockChronicleService) MarkRun(_ context.Context, _ string, _ models.ChronicleType, _ time.Time) error {
	return nil
}

type mockScheduler struct {
	running   bool
	triggered []models.ChronicleType
}

func (m *mockScheduler) Start() error               { m.running = true; return nil }
func (m *mockScheduler) Stop() error                { m.running = false; return nil }
func (m *mockScheduler) IsRunning() bool            { return m.running }
func (m *mockScheduler) Tick(_ context.Context) int { return 0 }
func (m *mockScheduler) Restore() error             { return nil }
func (m *mockScheduler) Persist() error             { return nil }
func (m *mockScheduler) TriggerForSubreddit(_ context.Context, _ string, kind models.ChronicleType) (*models.ChronicleResult, error) {
	m.triggered = append(m.triggered, kind)
	return &models.ChronicleResult{Success: true, Chronicle: models.Chronicle{Type: kind}, Post: &models.PostResult{Success: true, PostID: "t3_x"}}, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- helpers ---

var testTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func sampleState() *models.GameState {
	s := models.NewGameState("cats", testTime)
	s.TotalGrowth = 1.5
	s.SeedsPlanted = 1
	return s
}

func samplePlayer() *models.PlayerResources {
	return &models.PlayerResources{Username: "alice", SubredditName: "cats", Cinnamon: 95, TotalContributions: 5}
}

// newRequest builds a request with the subreddit path value and, when
// username is set, an authenticated context.
func newRequest(method, target, subreddit, username, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if subreddit != "" {
		req.SetPathValue("subreddit", subreddit)
	}
	if username != "" {
		req = req.WithContext(providers.WithUsername(req.Context(), username))
	}
	return req
}
