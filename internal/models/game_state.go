package models

import (
	"fmt"
	"time"

	"github.com/gookit/validate"
)

// GameState is the per-subreddit Spirit Tree record.
type GameState struct {
	SubredditName         string    `json:"subredditName" validate:"required"`
	TreeLevel             int       `json:"treeLevel" validate:"required|min:1|max:6"`
	TotalGrowth           float64   `json:"totalGrowth"`
	SeedsPlanted          int64     `json:"seedsPlanted" validate:"min:0"`
	SpiritsFed            int64     `json:"spiritsFed" validate:"min:0"`
	RobotCharged          int64     `json:"robotCharged" validate:"min:0"`
	DailyUpvotes          int64     `json:"dailyUpvotes" validate:"min:0"`
	LastGrowthCalculation time.Time `json:"lastGrowthCalculation"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
	Version               int64     `json:"version"`
}

func NewGameState(subreddit string, now time.Time) *GameState {
	return &GameState{
		SubredditName:         subreddit,
		TreeLevel:             1,
		LastGrowthCalculation: now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

func (g *GameState) Validate() error {
	v := validate.Struct(g)
	if !v.Validate() {
		return fmt.Errorf("%w: game state: %s", ErrValidation, v.Errors.One())
	}
	if g.TotalGrowth < 0 {
		return fmt.Errorf("%w: game state: negative growth", ErrValidation)
	}
	return nil
}

// GameStateUpdate is a partial update. TreeLevel is intentionally absent:
// it is always re-derived from TotalGrowth by the repository.
type GameStateUpdate struct {
	TotalGrowth           *float64
	DailyUpvotes          *int64
	LastGrowthCalculation *time.Time

	SeedsPlantedDelta int64
	SpiritsFedDelta   int64
	RobotChargedDelta int64
	UpvotesDelta      int64
	GrowthDelta       float64
}

// Apply merges the update into s. TotalGrowth never decreases.
func (u GameStateUpdate) Apply(s *GameState) {
	if u.TotalGrowth != nil && *u.TotalGrowth > s.TotalGrowth {
		s.TotalGrowth = *u.TotalGrowth
	}
	if u.DailyUpvotes != nil && *u.DailyUpvotes >= 0 {
		s.DailyUpvotes = *u.DailyUpvotes
	}
	if u.LastGrowthCalculation != nil {
		s.LastGrowthCalculation = *u.LastGrowthCalculation
	}
	s.SeedsPlanted += u.SeedsPlantedDelta
	s.SpiritsFed += u.SpiritsFedDelta
	s.RobotCharged += u.RobotChargedDelta
	s.DailyUpvotes += u.UpvotesDelta
	if u.GrowthDelta > 0 {
		s.TotalGrowth += u.GrowthDelta
	}
}

// ActionUpdate folds one action into the counters: the matching counter
// moves by exactly one and the contribution is added to TotalGrowth.
func ActionUpdate(action ActionType, growth float64) GameStateUpdate {
	u := GameStateUpdate{GrowthDelta: growth}
	switch action {
	case ActionPlant:
		u.SeedsPlantedDelta = 1
	case ActionFeed:
		u.SpiritsFedDelta = 1
	case ActionCharge:
		u.RobotChargedDelta = 1
	}
	return u
}
