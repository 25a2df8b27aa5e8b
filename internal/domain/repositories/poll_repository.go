package repositories

import (
	"context"
	"time"

	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
)

// PollRepository defines the interface for poll data access
type PollRepository interface {
	// Create inserts a poll
	Create(ctx context.Context, poll *entities.Poll) error

	// FindByID retrieves a poll by ID
	FindByID(ctx context.Context, id string) (*entities.Poll, error)

	// FindByRoomID retrieves the polls of a room in creation order
	FindByRoomID(ctx context.Context, roomID string) ([]*entities.Poll, error)

	// FindDue lists active polls whose end time is at or before now
	FindDue(ctx context.Context, now time.Time) ([]*entities.Poll, error)

	// UpdateStatus persists the status fields of poll if the stored status still equals from.
	// Returns ErrStaleState otherwise, so concurrent transitions have a single winner.
	UpdateStatus(ctx context.Context, poll *entities.Poll, from entities.PollStatus) error

	// DeleteByRoomID removes every poll of a room
	DeleteByRoomID(ctx context.Context, roomID string) (int64, error)
}
