package repositories

import (
	"context"

	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
)

// VoteRepository defines the interface for vote data access
type VoteRepository interface {
	// Create inserts a vote. Uniqueness of (poll, participant) is enforced by the store
	// itself; a second vote returns ErrDuplicate even under concurrent calls.
	Create(ctx context.Context, vote *entities.Vote) error

	// CountByOption counts the votes of a poll per option ID
	CountByOption(ctx context.Context, pollID string) (map[string]int64, error)

	// CountByPoll counts the votes of every poll in a room
	CountByPoll(ctx context.Context, roomID string) (map[string]int64, error)

	// DeleteByRoomID removes every vote of a room
	DeleteByRoomID(ctx context.Context, roomID string) (int64, error)
}
