package repositories

import (
	"context"

	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
)

// ParticipantRepository defines the interface for participant data access
type ParticipantRepository interface {
	// Create inserts a participant. Returns ErrDuplicate if the normalized name
	// is taken in the room or the token collides.
	Create(ctx context.Context, participant *entities.Participant) error

	// FindByID retrieves a participant by ID
	FindByID(ctx context.Context, id string) (*entities.Participant, error)

	// FindByToken retrieves a participant by its secret token
	FindByToken(ctx context.Context, token string) (*entities.Participant, error)

	// FindByRoomID retrieves the participants of a room in join order, optionally filtered by status
	FindByRoomID(ctx context.Context, roomID string, status *entities.ApprovalStatus) ([]*entities.Participant, error)

	// CountByStatus counts the participants of a room per approval status
	CountByStatus(ctx context.Context, roomID string) (map[entities.ApprovalStatus]int64, error)

	// UpdateApproval sets the approval status if it still equals from.
	// Returns ErrStaleState otherwise.
	UpdateApproval(ctx context.Context, id string, from, to entities.ApprovalStatus) error

	// DeleteByRoomID removes every participant of a room
	DeleteByRoomID(ctx context.Context, roomID string) (int64, error)
}
