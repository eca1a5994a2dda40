package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"cinnarito/internal/models"
	"cinnarito/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu     sync.Mutex
	Logs   []LogEntry
	Closed bool
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
}

// Count returns how many entries were logged at level whose format contains substr.
func (m *MockLogger) Count(level, substr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.Logs {
		if l.Level == level && strings.Contains(l.Format, substr) {
			n++
		}
	}
	return n
}

// MockMetrics implements providers.MetricsProviderInterface.
type MockMetrics struct {
	mu           sync.Mutex
	Actions      map[string]int
	StoreRetries int
	Posts        map[bool]int
	Archives     int
	Subreddits   int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits()                                    {}
func (m *MockMetrics) IncCacheMisses()                                  {}

func (m *MockMetrics) IncActions(action, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Actions == nil {
		m.Actions = make(map[string]int)
	}
	m.Actions[action+":"+outcome]++
}

func (m *MockMetrics) IncStoreRetries() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreRetries++
}

func (m *MockMetrics) IncChroniclePosts(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Posts == nil {
		m.Posts = make(map[bool]int)
	}
	m.Posts[success]++
}

func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Archives++
}

func (m *MockMetrics) SetSubredditsTotal(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Subreddits = count
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}

// MockPoster implements services.PlatformPoster.
type MockPoster struct {
	mu       sync.Mutex
	Err      error
	Requests []PostRequest
}

type PostRequest struct {
	Subreddit string
	Title     string
	Content   string
}

func (m *MockPoster) Submit(_ context.Context, subreddit, title, content string) (*models.PostResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, PostRequest{Subreddit: subreddit, Title: title, Content: content})
	if m.Err != nil {
		return nil, m.Err
	}
	return &models.PostResult{Success: true, PostID: "t3_mock", URL: "https://reddit.com/r/" + subreddit + "/comments/mock"}, nil
}

func (m *MockPoster) Calls() []PostRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PostRequest(nil), m.Requests...)
}

// Clock is a settable time source for repositories and services.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
