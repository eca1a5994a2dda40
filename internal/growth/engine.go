// Package growth maps activity counters to Spirit Tree growth and levels.
// Everything here is pure and safe for concurrent use.
package growth

import (
	"math"

	"cinnarito/internal/models"
)

const (
	SeedWeight   = 1.5
	FeedWeight   = 2.0
	ChargeWeight = 3.0
	UpvoteWeight = 0.1

	MaxLevel = 6
)

type Threshold struct {
	Level     int
	MinGrowth float64
}

// Thresholds is ordered by ascending level.
var Thresholds = []Threshold{
	{Level: 1, MinGrowth: 0},
	{Level: 2, MinGrowth: 50},
	{Level: 3, MinGrowth: 150},
	{Level: 4, MinGrowth: 300},
	{Level: 5, MinGrowth: 500},
	{Level: 6, MinGrowth: 1000},
}

// Round2 rounds half-up at the second decimal.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5+1e-9) / 100
}

func ComputeGrowth(seedsPlanted, spiritsFed, robotCharged, redditUpvotes int64) float64 {
	g := float64(seedsPlanted)*SeedWeight +
		float64(spiritsFed)*FeedWeight +
		float64(robotCharged)*ChargeWeight +
		float64(redditUpvotes)*UpvoteWeight
	return Round2(g)
}

// ComputeLevel returns the highest level whose threshold is <= totalGrowth.
// Growth past the last threshold stays at MaxLevel.
func ComputeLevel(totalGrowth float64) int {
	for i := len(Thresholds) - 1; i >= 0; i-- {
		if totalGrowth >= Thresholds[i].MinGrowth {
			return Thresholds[i].Level
		}
	}
	return 1
}

// Contribution is the growth one action adds. It shares the weights used by
// ComputeGrowth so the per-action and aggregate paths cannot drift apart.
func Contribution(action models.ActionType) float64 {
	switch action {
	case models.ActionPlant:
		return SeedWeight
	case models.ActionFeed:
		return FeedWeight
	case models.ActionCharge:
		return ChargeWeight
	}
	return 0
}

func UpvoteContribution(count int64) float64 {
	return Round2(float64(count) * UpvoteWeight)
}

// NextThreshold reports the growth needed to leave level, false at MaxLevel.
func NextThreshold(level int) (float64, bool) {
	for _, t := range Thresholds {
		if t.Level == level+1 {
			return t.MinGrowth, true
		}
	}
	return 0, false
}

// Progress is the fraction of the way from the current level to the next one.
func Progress(totalGrowth float64) float64 {
	level := ComputeLevel(totalGrowth)
	next, ok := NextThreshold(level)
	if !ok {
		return 1
	}
	base := Thresholds[level-1].MinGrowth
	return math.Min(1, math.Max(0, (totalGrowth-base)/(next-base)))
}
