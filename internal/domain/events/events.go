package events

import (
	"context"
	"time"

	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
)

// Type names a room-scoped state change pushed to live connections
type Type string

const (
	TypeParticipantJoined        Type = "participant_joined"
	TypeParticipantStatusChanged Type = "participant_status_changed"
	TypePollCreated              Type = "poll_created"
	TypePollStarted              Type = "poll_started"
	TypePollCancelled            Type = "poll_cancelled"
	TypeVoteCast                 Type = "vote_cast"
	TypePollStopped              Type = "poll_stopped"
	TypeRoomClosed               Type = "room_closed"
)

// Event is the envelope delivered to every connection subscribed to RoomID
type Event struct {
	Type      Type      `json:"type"`
	RoomID    string    `json:"room_id"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher fans an event out to a room. Delivery failures are handled by the
// implementation and never reported to the caller.
type Publisher interface {
	Publish(ctx context.Context, roomID string, event Event)
}

// ParticipantPayload is the public shape of a participant; the token is never included
type ParticipantPayload struct {
	ParticipantID  string                  `json:"participant_id"`
	Name           string                  `json:"name"`
	ApprovalStatus entities.ApprovalStatus `json:"approval_status"`
	JoinedAt       time.Time               `json:"joined_at"`
}

// PollPayload is the public shape of a poll without vote counts
type PollPayload struct {
	PollID       string                `json:"poll_id"`
	Question     string                `json:"question"`
	Options      []entities.PollOption `json:"options"`
	Status       entities.PollStatus   `json:"status"`
	TimerMinutes *int                  `json:"timer_minutes,omitempty"`
	StartedAt    *time.Time            `json:"started_at,omitempty"`
	EndsAt       *time.Time            `json:"ends_at,omitempty"`
}

// PollStoppedPayload carries the final tallies of a completed poll
type PollStoppedPayload struct {
	PollID  string                `json:"poll_id"`
	Reason  entities.StopReason   `json:"reason"`
	Results *entities.PollResults `json:"results"`
}

// RoomClosedPayload tells clients the room is about to disappear
type RoomClosedPayload struct {
	Reason string `json:"reason"`
}

// New builds an event envelope
func New(t Type, roomID string, data any, at time.Time) Event {
	return Event{Type: t, RoomID: roomID, Data: data, Timestamp: at}
}

// ParticipantJoined builds a participant_joined event
func ParticipantJoined(p *entities.Participant, at time.Time) Event {
	return New(TypeParticipantJoined, p.RoomID, participantPayload(p), at)
}

// ParticipantStatusChanged builds a participant_status_changed event
func ParticipantStatusChanged(p *entities.Participant, at time.Time) Event {
	return New(TypeParticipantStatusChanged, p.RoomID, participantPayload(p), at)
}

// PollCreated builds a poll_created event
func PollCreated(p *entities.Poll, at time.Time) Event {
	return New(TypePollCreated, p.RoomID, ToPollPayload(p), at)
}

// PollStarted builds a poll_started event
func PollStarted(p *entities.Poll, at time.Time) Event {
	return New(TypePollStarted, p.RoomID, ToPollPayload(p), at)
}

// PollCancelled builds a poll_cancelled event
func PollCancelled(p *entities.Poll, at time.Time) Event {
	return New(TypePollCancelled, p.RoomID, ToPollPayload(p), at)
}

// VoteCast builds a vote_cast event. Only tallies are carried, never who voted for what.
func VoteCast(roomID string, results *entities.PollResults, at time.Time) Event {
	return New(TypeVoteCast, roomID, results, at)
}

// PollStopped builds a poll_stopped event
func PollStopped(p *entities.Poll, reason entities.StopReason, results *entities.PollResults, at time.Time) Event {
	return New(TypePollStopped, p.RoomID, PollStoppedPayload{PollID: p.ID, Reason: reason, Results: results}, at)
}

// RoomClosed builds a room_closed event
func RoomClosed(roomID, reason string, at time.Time) Event {
	return New(TypeRoomClosed, roomID, RoomClosedPayload{Reason: reason}, at)
}

// ToPollPayload maps a poll to its public shape
func ToPollPayload(p *entities.Poll) PollPayload {
	return PollPayload{
		PollID:       p.ID,
		Question:     p.Question,
		Options:      []entities.PollOption(p.Options),
		Status:       p.Status,
		TimerMinutes: p.TimerMinutes,
		StartedAt:    p.StartedAt,
		EndsAt:       p.EndsAt,
	}
}

func participantPayload(p *entities.Participant) ParticipantPayload {
	return ParticipantPayload{
		ParticipantID:  p.ID,
		Name:           p.Name,
		ApprovalStatus: p.ApprovalStatus,
		JoinedAt:       p.JoinedAt,
	}
}

// Discard is a Publisher that drops every event
type Discard struct{}

// Publish implements Publisher
func (Discard) Publish(context.Context, string, Event) {}
