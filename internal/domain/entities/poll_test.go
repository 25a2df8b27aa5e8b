package entities

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func intPtr(n int) *int { return &n }

func newPoll(status PollStatus, timer *int) Poll {
	return Poll{
		ID:           "poll-1",
		RoomID:       "ROOM1",
		Question:     "Lunch?",
		Options:      []PollOption{{ID: "a", Text: "Pizza"}, {ID: "b", Text: "Sushi"}},
		Status:       status,
		TimerMinutes: timer,
		CreatedAt:    t0,
	}
}

func TestValidatePollInput(t *testing.T) {
	tests := []struct {
		name     string
		question string
		options  []string
		timer    *int
		wantErr  error
	}{
		{name: "valid", question: " Lunch? ", options: []string{" Pizza", "Sushi "}},
		{name: "valid with timer bounds", question: "Q", options: []string{"a", "b"}, timer: intPtr(120)},
		{name: "blank question", question: "   ", options: []string{"a", "b"}, wantErr: ErrEmptyQuestion},
		{name: "question too long", question: strings.Repeat("q", MaxPollQuestionLength+1), options: []string{"a", "b"}, wantErr: ErrQuestionTooLong},
		{name: "single option", question: "Q", options: []string{"a"}, wantErr: ErrOptionCount},
		{name: "too many options", question: "Q", options: make([]string, MaxPollOptions+1), wantErr: ErrOptionCount},
		{name: "blank option", question: "Q", options: []string{"a", " "}, wantErr: ErrEmptyOption},
		{name: "option too long", question: "Q", options: []string{"a", strings.Repeat("o", MaxOptionLength+1)}, wantErr: ErrOptionTooLong},
		{name: "duplicate options ignore case", question: "Q", options: []string{"Yes", " yes"}, wantErr: ErrDuplicateOption},
		{name: "timer too short", question: "Q", options: []string{"a", "b"}, timer: intPtr(0), wantErr: ErrInvalidTimer},
		{name: "timer too long", question: "Q", options: []string{"a", "b"}, timer: intPtr(121), wantErr: ErrInvalidTimer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, opts, err := ValidatePollInput(tt.question, tt.options, tt.timer)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(tt.question), q)
			for _, o := range opts {
				assert.Equal(t, strings.TrimSpace(o), o)
			}
		})
	}
}

func TestPoll_Transitions(t *testing.T) {
	t.Run("start sets the end time from the timer", func(t *testing.T) {
		p := newPoll(PollStatusCreated, intPtr(5))
		started, err := p.Start(t0)
		require.NoError(t, err)

		assert.Equal(t, PollStatusActive, started.Status)
		require.NotNil(t, started.EndsAt)
		assert.Equal(t, t0.Add(5*time.Minute), *started.EndsAt)
		assert.Equal(t, PollStatusCreated, p.Status, "receiver must stay untouched")

		assert.False(t, started.IsDue(t0.Add(5*time.Minute-time.Second)))
		assert.True(t, started.IsDue(t0.Add(5*time.Minute)))
	})

	t.Run("untimed poll is never due", func(t *testing.T) {
		p := newPoll(PollStatusCreated, nil)
		started, err := p.Start(t0)
		require.NoError(t, err)
		assert.Nil(t, started.EndsAt)
		assert.False(t, started.IsDue(t0.Add(24*time.Hour)))
	})

	t.Run("stop records the reason", func(t *testing.T) {
		p := newPoll(PollStatusActive, nil)
		stopped, err := p.Stop(t0, StopReasonTimerExpired)
		require.NoError(t, err)
		assert.Equal(t, PollStatusCompleted, stopped.Status)
		require.NotNil(t, stopped.StopReason)
		assert.Equal(t, StopReasonTimerExpired, *stopped.StopReason)
		assert.True(t, stopped.Status.IsTerminal())
	})

	t.Run("cancel only from created", func(t *testing.T) {
		p := newPoll(PollStatusCreated, nil)
		cancelled, err := p.Cancel(t0)
		require.NoError(t, err)
		assert.Equal(t, PollStatusCancelled, cancelled.Status)

		_, err = newPoll(PollStatusActive, nil).Cancel(t0)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("terminal states reject everything", func(t *testing.T) {
		for _, status := range []PollStatus{PollStatusCompleted, PollStatusCancelled} {
			p := newPoll(status, nil)
			_, err := p.Start(t0)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			_, err = p.Stop(t0, StopReasonManual)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			_, err = p.Cancel(t0)
			assert.ErrorIs(t, err, ErrInvalidTransition)
		}
	})
}

func TestTally(t *testing.T) {
	p := newPoll(PollStatusActive, nil)
	res := Tally(&p, map[string]int64{"b": 3, "ghost": 7})

	require.Len(t, res.Options, 2)
	assert.Equal(t, OptionTally{OptionID: "a", Text: "Pizza", Votes: 0}, res.Options[0])
	assert.Equal(t, OptionTally{OptionID: "b", Text: "Sushi", Votes: 3}, res.Options[1])
	assert.Equal(t, int64(3), res.Total)
	assert.True(t, p.HasOption("a"))
	assert.False(t, p.HasOption("ghost"))
}
