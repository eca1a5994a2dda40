package models

import (
	"fmt"
	"time"
)

type ChronicleType string

const (
	ChronicleDaily     ChronicleType = "daily"
	ChronicleWeekly    ChronicleType = "weekly"
	ChronicleMilestone ChronicleType = "milestone"
)

func ParseChronicleType(s string) (ChronicleType, error) {
	switch t := ChronicleType(s); t {
	case ChronicleDaily, ChronicleWeekly, ChronicleMilestone:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, s)
}

// ChronicleSchedule is only kept for daily and weekly chronicles.
type ChronicleSchedule struct {
	SubredditName string        `json:"subredditName"`
	Type          ChronicleType `json:"type"`
	NextRunTime   time.Time     `json:"nextRunTime"`
	LastRunTime   *time.Time    `json:"lastRunTime,omitempty"`
	IsActive      bool          `json:"isActive"`
}

func (s *ChronicleSchedule) Due(now time.Time) bool {
	return s.IsActive && !now.Before(s.NextRunTime)
}

type Chronicle struct {
	Type    ChronicleType `json:"type"`
	Title   string        `json:"title"`
	Content string        `json:"content"`
}

type PostResult struct {
	Success bool   `json:"success"`
	PostID  string `json:"postId,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ChronicleResult struct {
	Success   bool        `json:"success"`
	Chronicle Chronicle   `json:"chronicle"`
	Post      *PostResult `json:"post,omitempty"`
}

// Snapshot is the on-disk archive envelope.
type Snapshot struct {
	Version int          `json:"version"`
	TakenAt time.Time    `json:"takenAt"`
	States  []*GameState `json:"states"`
}
