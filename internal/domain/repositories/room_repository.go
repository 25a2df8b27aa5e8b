package repositories

import (
	"context"
	"time"

	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
)

// RoomRepository defines the interface for room data access
type RoomRepository interface {
	// Create inserts a room. Returns ErrDuplicate if the room id is taken.
	Create(ctx context.Context, room *entities.Room) error

	// FindByID retrieves a room by its code
	FindByID(ctx context.Context, id string) (*entities.Room, error)

	// Touch moves last activity forward to at. Older timestamps are ignored.
	Touch(ctx context.Context, id string, at time.Time) error

	// FindExpired lists active rooms whose last activity is before cutoff
	FindExpired(ctx context.Context, cutoff time.Time) ([]*entities.Room, error)

	// Delete removes a room. Deleting a missing room is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteIdle removes a room only if its last activity is still before cutoff.
	// Returns ErrStaleState if the room was touched since or no longer exists.
	DeleteIdle(ctx context.Context, id string, cutoff time.Time) error
}
