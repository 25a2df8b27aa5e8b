package poll

// CreatePollRequest represents the request to create a poll
type CreatePollRequest struct {
	Question     string   `json:"question" validate:"required,notblank,max=500"`
	Options      []string `json:"options" validate:"required,min=2,max=20,dive,notblank,max=200"`
	TimerMinutes *int     `json:"timer_minutes,omitempty" validate:"omitempty,min=1,max=120"`
}

// CastVoteRequest represents a vote. The voter is identified by the X-Participant-Token header.
type CastVoteRequest struct {
	OptionID string `json:"option_id" validate:"required"`
}
