package poll

import (
	"time"
)

// OptionResponse represents one poll option
type OptionResponse struct {
	ID   string `json:"option_id"`
	Text string `json:"text"`
}

// PollResponse represents a poll without per-option counts
type PollResponse struct {
	ID           string           `json:"poll_id"`
	RoomID       string           `json:"room_id"`
	Question     string           `json:"question"`
	Options      []OptionResponse `json:"options"`
	Status       string           `json:"status"`
	TimerMinutes *int             `json:"timer_minutes,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	EndsAt       *time.Time       `json:"ends_at,omitempty"`
	StoppedAt    *time.Time       `json:"stopped_at,omitempty"`
	StopReason   *string          `json:"stop_reason,omitempty"`
	TotalVotes   *int64           `json:"total_votes,omitempty"`
}

// ListPollsResponse represents the polls of a room
type ListPollsResponse struct {
	Polls []*PollResponse `json:"polls"`
	Total int             `json:"total"`
}

// OptionResultResponse is the tally of one option
type OptionResultResponse struct {
	ID    string `json:"option_id"`
	Text  string `json:"text"`
	Votes int64  `json:"votes"`
}

// ResultsResponse is the tally of a poll in option order
type ResultsResponse struct {
	PollID     string                 `json:"poll_id"`
	Question   string                 `json:"question"`
	Status     string                 `json:"status"`
	Results    []OptionResultResponse `json:"results"`
	TotalVotes int64                  `json:"total_votes"`
}
