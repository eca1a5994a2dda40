package testutil

import (
	"testing"
	"time"

	"cinnarito/internal/structures"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// NewRedis starts an in-memory redis that is torn down with the test.
func NewRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// Config returns a configuration with the production defaults and
// millisecond retry delays.
func Config() *structures.Config {
	return &structures.Config{
		AppName: "Cinnarito",
		Game: structures.GameConfig{
			Namespace:          "cinnarito",
			StartingCinnamon:   100,
			MaxCinnamon:        1000,
			HistoryLimit:       1000,
			ActivePlayerWindow: time.Hour,
		},
		Actions: structures.ActionsConfig{
			CooldownScope:   structures.CooldownScopePlayer,
			CollectAmount:   25,
			CollectCooldown: 10 * time.Minute,
		},
		Retry: structures.RetryConfig{
			Attempts:    3,
			BaseDelay:   time.Millisecond,
			CASAttempts: 10,
		},
		Chronicle: structures.ChronicleConfig{
			Enabled:      true,
			TickInterval: time.Minute,
		},
		Cache: structures.CacheConfig{TTL: 2 * time.Second},
	}
}
