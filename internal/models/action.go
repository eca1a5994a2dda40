package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/gookit/validate"
)

type ActionType string

const (
	ActionPlant  ActionType = "plant"
	ActionFeed   ActionType = "feed"
	ActionCharge ActionType = "charge"
	ActionPost   ActionType = "post"
)

var ActionTypes = []ActionType{ActionPlant, ActionFeed, ActionCharge, ActionPost}

func (a ActionType) Valid() bool {
	switch a {
	case ActionPlant, ActionFeed, ActionCharge, ActionPost:
		return true
	}
	return false
}

func ParseActionType(s string) (ActionType, error) {
	a := ActionType(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}

// ActionHistory is an immutable record of one performed action.
type ActionHistory struct {
	ID                string     `json:"id" validate:"required"`
	Username          string     `json:"username" validate:"required"`
	SubredditName     string     `json:"subredditName" validate:"required"`
	ActionType        ActionType `json:"actionType"`
	ResourcesSpent    int        `json:"resourcesSpent" validate:"min:0"`
	GrowthContributed float64    `json:"growthContributed"`
	Timestamp         time.Time  `json:"timestamp"`
}

func (a *ActionHistory) Validate() error {
	v := validate.Struct(a)
	if !v.Validate() {
		return fmt.Errorf("%w: action history: %s", ErrValidation, v.Errors.One())
	}
	if !a.ActionType.Valid() {
		return fmt.Errorf("%w: action history: unknown action type %q", ErrValidation, a.ActionType)
	}
	if a.GrowthContributed < 0 {
		return fmt.Errorf("%w: action history: negative growth", ErrValidation)
	}
	return nil
}

// ActionResult is what the coordinator returns after a successful action.
type ActionResult struct {
	Success         bool             `json:"success"`
	Message         string           `json:"message,omitempty"`
	GameState       *GameState       `json:"gameState"`
	PlayerResources *PlayerResources `json:"playerResources"`
	Action          *ActionHistory   `json:"action,omitempty"`
	CooldownSeconds int              `json:"cooldownSeconds"`
	LeveledUp       bool             `json:"leveledUp"`
}

type InitResult struct {
	Success         bool             `json:"success"`
	Username        string           `json:"username"`
	GameState       *GameState       `json:"gameState"`
	PlayerResources *PlayerResources `json:"playerResources"`
	ActivePlayers   int64            `json:"activePlayers"`
	TotalPlayers    int              `json:"totalPlayers"`
}
