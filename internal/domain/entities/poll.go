package entities

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	MaxPollQuestionLength = 500
	MinPollOptions        = 2
	MaxPollOptions        = 20
	MaxOptionLength       = 200
	MinTimerMinutes       = 1
	MaxTimerMinutes       = 120
)

// PollStatus represents the lifecycle state of a poll
type PollStatus string

const (
	PollStatusCreated   PollStatus = "created"
	PollStatusActive    PollStatus = "active"
	PollStatusCompleted PollStatus = "completed"
	PollStatusCancelled PollStatus = "cancelled"
)

// IsTerminal reports whether no transition can leave s
func (s PollStatus) IsTerminal() bool {
	return s == PollStatusCompleted || s == PollStatusCancelled
}

// StopReason tells why an active poll was completed
type StopReason string

const (
	StopReasonManual       StopReason = "manual"
	StopReasonTimerExpired StopReason = "timer_expired"
)

// IsValid reports whether r is a known stop reason
func (r StopReason) IsValid() bool {
	return r == StopReasonManual || r == StopReasonTimerExpired
}

// PollOption is one choice of a poll. ID is assigned at creation and never derived from Text.
type PollOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Poll is a single question with fixed options
type Poll struct {
	ID           string                          `gorm:"type:varchar(36);primaryKey" json:"id"`
	RoomID       string                          `gorm:"type:varchar(10);not null;index" json:"room_id"`
	Question     string                          `gorm:"type:varchar(500);not null" json:"question"`
	Options      datatypes.JSONSlice[PollOption] `gorm:"type:jsonb;not null" json:"options"`
	Status       PollStatus                      `gorm:"type:varchar(20);not null;default:'created';index" json:"status"`
	TimerMinutes *int                            `json:"timer_minutes,omitempty"`
	CreatedAt    time.Time                       `gorm:"not null" json:"created_at"`
	StartedAt    *time.Time                      `json:"started_at,omitempty"`
	EndsAt       *time.Time                      `gorm:"index" json:"ends_at,omitempty"`
	StoppedAt    *time.Time                      `json:"stopped_at,omitempty"`
	StopReason   *StopReason                     `gorm:"type:varchar(20)" json:"stop_reason,omitempty"`
}

// TableName specifies the table name for Poll
func (Poll) TableName() string {
	return "polls"
}

// NormalizeOption folds option text for duplicate detection
func NormalizeOption(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// ValidatePollInput checks question, options and timer, returning the trimmed question and options
func ValidatePollInput(question string, options []string, timerMinutes *int) (string, []string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, ErrEmptyQuestion
	}
	if len([]rune(question)) > MaxPollQuestionLength {
		return "", nil, ErrQuestionTooLong
	}
	if len(options) < MinPollOptions || len(options) > MaxPollOptions {
		return "", nil, ErrOptionCount
	}

	seen := make(map[string]struct{}, len(options))
	trimmed := make([]string, 0, len(options))
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return "", nil, ErrEmptyOption
		}
		if len([]rune(opt)) > MaxOptionLength {
			return "", nil, ErrOptionTooLong
		}
		key := NormalizeOption(opt)
		if _, dup := seen[key]; dup {
			return "", nil, ErrDuplicateOption
		}
		seen[key] = struct{}{}
		trimmed = append(trimmed, opt)
	}

	if timerMinutes != nil && (*timerMinutes < MinTimerMinutes || *timerMinutes > MaxTimerMinutes) {
		return "", nil, ErrInvalidTimer
	}
	return question, trimmed, nil
}

// HasOption reports whether optionID belongs to the poll
func (p *Poll) HasOption(optionID string) bool {
	for _, opt := range p.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// IsDue reports whether an active poll's timer has run out at now
func (p *Poll) IsDue(now time.Time) bool {
	return p.Status == PollStatusActive && p.EndsAt != nil && !now.Before(*p.EndsAt)
}

// Start moves a created poll to active. The receiver is left untouched.
func (p Poll) Start(now time.Time) (*Poll, error) {
	if p.Status != PollStatusCreated {
		return nil, ErrInvalidTransition
	}
	p.Status = PollStatusActive
	started := now
	p.StartedAt = &started
	p.EndsAt = nil
	if p.TimerMinutes != nil {
		ends := now.Add(time.Duration(*p.TimerMinutes) * time.Minute)
		p.EndsAt = &ends
	}
	return &p, nil
}

// Stop completes an active poll
func (p Poll) Stop(now time.Time, reason StopReason) (*Poll, error) {
	if p.Status != PollStatusActive {
		return nil, ErrInvalidTransition
	}
	p.Status = PollStatusCompleted
	stopped := now
	p.StoppedAt = &stopped
	p.StopReason = &reason
	return &p, nil
}

// Cancel withdraws a poll that never started
func (p Poll) Cancel(now time.Time) (*Poll, error) {
	if p.Status != PollStatusCreated {
		return nil, ErrInvalidTransition
	}
	p.Status = PollStatusCancelled
	stopped := now
	p.StoppedAt = &stopped
	return &p, nil
}
