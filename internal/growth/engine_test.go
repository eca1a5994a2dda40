package growth

import (
	"testing"

	"cinnarito/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestComputeGrowth_Formula(t *testing.T) {
	tests := []struct {
		name                   string
		seeds, fed, charged, u int64
		expected               float64
	}{
		{"zero", 0, 0, 0, 0, 0},
		{"one plant", 1, 0, 0, 0, 1.5},
		{"mixed", 2, 3, 4, 0, 3 + 6 + 12},
		{"upvotes only", 0, 0, 0, 7, 0.7},
		{"everything", 10, 5, 3, 123, 15 + 10 + 9 + 12.3},
		{"many upvotes", 0, 0, 0, 3, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ComputeGrowth(tt.seeds, tt.fed, tt.charged, tt.u), 1e-9)
		})
	}
}

func TestComputeGrowth_MatchesRoundedSum(t *testing.T) {
	for s := int64(0); s < 20; s++ {
		for u := int64(0); u < 50; u += 7 {
			want := Round2(1.5*float64(s) + 2*float64(s+1) + 3*float64(s+2) + 0.1*float64(u))
			assert.Equal(t, want, ComputeGrowth(s, s+1, s+2, u))
		}
	}
}

func TestRound2_HalfUp(t *testing.T) {
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, 1.01, Round2(1.005))
	assert.Equal(t, 2.0, Round2(1.999))
	assert.Equal(t, 0.3, Round2(0.1+0.2))
}

func TestComputeLevel_Thresholds(t *testing.T) {
	tests := []struct {
		growth float64
		level  int
	}{
		{0, 1},
		{49.99, 1},
		{50, 2},
		{149.99, 2},
		{150, 3},
		{300, 4},
		{500, 5},
		{999.99, 5},
		{1000, 6},
		{1e9, 6},
		{-5, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, ComputeLevel(tt.growth), "growth %v", tt.growth)
	}
}

func TestComputeLevel_MonotonicAndBounded(t *testing.T) {
	prev := ComputeLevel(0)
	for g := 0.0; g <= 2000; g += 0.5 {
		level := ComputeLevel(g)
		assert.GreaterOrEqual(t, level, prev)
		assert.GreaterOrEqual(t, level, 1)
		assert.LessOrEqual(t, level, MaxLevel)
		prev = level
	}
}

func TestContribution_UsesEngineWeights(t *testing.T) {
	assert.Equal(t, 1.5, Contribution(models.ActionPlant))
	assert.Equal(t, 2.0, Contribution(models.ActionFeed))
	assert.Equal(t, 3.0, Contribution(models.ActionCharge))
	assert.Equal(t, 0.0, Contribution(models.ActionPost))
	assert.Equal(t, ComputeGrowth(1, 0, 0, 0), Contribution(models.ActionPlant))
}

func TestNextThresholdAndProgress(t *testing.T) {
	next, ok := NextThreshold(1)
	assert.True(t, ok)
	assert.Equal(t, 50.0, next)

	_, ok = NextThreshold(MaxLevel)
	assert.False(t, ok)

	assert.InDelta(t, 0.5, Progress(25), 1e-9)
	assert.InDelta(t, 0.0, Progress(50), 1e-9)
	assert.Equal(t, 1.0, Progress(5000))
}

func TestUpvoteContribution(t *testing.T) {
	assert.Equal(t, 0.3, UpvoteContribution(3))
	assert.Equal(t, 0.0, UpvoteContribution(0))
}
