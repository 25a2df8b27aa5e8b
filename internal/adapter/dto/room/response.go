package room

import (
	"time"
)

// RoomResponse represents a room in API responses
type RoomResponse struct {
	ID            string    `json:"room_id"`
	OrganizerName string    `json:"organizer_name"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	LastActivity  time.Time `json:"last_activity"`
}

// CreateRoomResponse represents the response after creating a room
type CreateRoomResponse struct {
	Room           *RoomResponse `json:"room"`
	OrganizerToken string        `json:"organizer_token"`
	ExpiresIn      int64         `json:"expires_in"`
}

// RoomStatusResponse represents the live status of a room
type RoomStatusResponse struct {
	Room             *RoomResponse     `json:"room"`
	Participants     ParticipantCounts `json:"participants"`
	Polls            PollCounts        `json:"polls"`
	ConnectedClients int               `json:"connected_clients"`
}

// ParticipantCounts counts participants per approval status
type ParticipantCounts struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Denied   int64 `json:"denied"`
	Total    int64 `json:"total"`
}

// PollCounts counts polls per status
type PollCounts struct {
	Created   int64 `json:"created"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
	Total     int64 `json:"total"`
}

// ParticipantResponse represents a participant in API responses. The token is never included.
type ParticipantResponse struct {
	ID             string    `json:"participant_id"`
	RoomID         string    `json:"room_id"`
	Name           string    `json:"participant_name"`
	ApprovalStatus string    `json:"approval_status"`
	JoinedAt       time.Time `json:"joined_at"`
}

// JoinRoomResponse is returned once, to the joining participant, with the token
type JoinRoomResponse struct {
	Participant      *ParticipantResponse `json:"participant"`
	ParticipantToken string               `json:"participant_token"`
}

// ListParticipantsResponse represents a list of participants
type ListParticipantsResponse struct {
	Participants []*ParticipantResponse `json:"participants"`
	Total        int                    `json:"total"`
}
