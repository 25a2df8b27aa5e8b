package room

import (
	"context"
	"time"

	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
)

// Service defines the interface for room use case
type Service interface {
	// CreateRoom creates a new room and issues the organizer token
	CreateRoom(ctx context.Context, input CreateRoomInput) (*CreateRoomOutput, error)

	// GetRoom retrieves an active room by ID
	GetRoom(ctx context.Context, roomID string) (*entities.Room, error)

	// GetRoomStatus returns the room with participant, poll and connection counts
	GetRoomStatus(ctx context.Context, roomID string) (*RoomStatus, error)

	// JoinRoom registers a pending participant
	JoinRoom(ctx context.Context, input JoinRoomInput) (*entities.Participant, error)

	// SetApproval records the organizer's decision on a participant
	SetApproval(ctx context.Context, input SetApprovalInput) (*entities.Participant, error)

	// ListParticipants retrieves the participants of a room, optionally filtered by status
	ListParticipants(ctx context.Context, roomID string, status *entities.ApprovalStatus) ([]*entities.Participant, error)

	// GetParticipantByToken resolves a participant token
	GetParticipantByToken(ctx context.Context, token string) (*entities.Participant, error)

	// DeleteRoom closes a room and removes everything it owns
	DeleteRoom(ctx context.Context, roomID string) error

	// ExpireInactiveRooms removes rooms idle since before cutoff and returns how many were removed
	ExpireInactiveRooms(ctx context.Context, cutoff time.Time) (int, error)
}

// Ensure RoomService implements Service interface
var _ Service = (*RoomService)(nil)
