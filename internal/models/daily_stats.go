package models

import (
	"fmt"
	"time"

	"github.com/gookit/validate"
)

const DateLayout = "2006-01-02"

// DailyGrowthStats is a snapshot taken once per subreddit and calendar date.
type DailyGrowthStats struct {
	SubredditName     string    `json:"subredditName" validate:"required"`
	Date              string    `json:"date" validate:"required"`
	SeedsPlanted      int64     `json:"seedsPlanted" validate:"min:0"`
	SpiritsFed        int64     `json:"spiritsFed" validate:"min:0"`
	RobotCharged      int64     `json:"robotCharged" validate:"min:0"`
	RedditUpvotes     int64     `json:"redditUpvotes" validate:"min:0"`
	TotalGrowth       float64   `json:"totalGrowth"`
	ActivePlayerCount int64     `json:"activePlayerCount" validate:"min:0"`
	CreatedAt         time.Time `json:"createdAt"`
}

func (d *DailyGrowthStats) Validate() error {
	v := validate.Struct(d)
	if !v.Validate() {
		return fmt.Errorf("%w: daily stats: %s", ErrValidation, v.Errors.One())
	}
	if _, err := time.Parse(DateLayout, d.Date); err != nil {
		return fmt.Errorf("%w: daily stats: bad date %q", ErrValidation, d.Date)
	}
	return nil
}

type GrowthCalculation struct {
	GameState  *GameState        `json:"gameState"`
	DailyStats *DailyGrowthStats `json:"dailyStats"`
	Computed   float64           `json:"computedGrowth"`
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
