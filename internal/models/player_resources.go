package models

import (
	"fmt"
	"time"

	"github.com/gookit/validate"
)

// PlayerResources is keyed by username and subreddit.
type PlayerResources struct {
	Username           string    `json:"username" validate:"required"`
	SubredditName      string    `json:"subredditName" validate:"required"`
	Cinnamon           int       `json:"cinnamon" validate:"min:0"`
	Seeds              int       `json:"seeds" validate:"min:0"`
	Energy             int       `json:"energy" validate:"min:0"`
	TotalContributions int       `json:"totalContributions" validate:"min:0"`
	LastActive         time.Time `json:"lastActive"`
	CreatedAt          time.Time `json:"createdAt"`
}

func (p *PlayerResources) Validate() error {
	v := validate.Struct(p)
	if !v.Validate() {
		return fmt.Errorf("%w: player resources: %s", ErrValidation, v.Errors.One())
	}
	return nil
}

type PlayerUpdate struct {
	CinnamonDelta      int
	SeedsDelta         int
	EnergyDelta        int
	ContributionsDelta int
	LastActive         *time.Time
}

// Apply merges the update and clamps cinnamon into [0, maxCinnamon].
func (u PlayerUpdate) Apply(p *PlayerResources, maxCinnamon int) {
	p.Cinnamon = clamp(p.Cinnamon+u.CinnamonDelta, 0, maxCinnamon)
	p.Seeds = max(p.Seeds+u.SeedsDelta, 0)
	p.Energy = max(p.Energy+u.EnergyDelta, 0)
	p.TotalContributions += u.ContributionsDelta
	if u.LastActive != nil {
		p.LastActive = *u.LastActive
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}
