package interfaces

import (
	"context"

	"cinnarito/internal/models"
)

type SchedulerInterface interface {
	Start() error
	Stop() error
	IsRunning() bool
	Tick(ctx context.Context) int
	TriggerForSubreddit(ctx context.Context, subreddit string, kind models.ChronicleType) (*models.ChronicleResult, error)
	Restore() error
	Persist() error
}
