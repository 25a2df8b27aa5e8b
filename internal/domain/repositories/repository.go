package repositories

import "errors"

// Errors every repository implementation translates its driver errors into
var (
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleState is returned when a conditional update finds the record in another state
	ErrStaleState = errors.New("record state changed")
)

// Store bundles the repositories of one backing engine
type Store interface {
	Rooms() RoomRepository
	Participants() ParticipantRepository
	Polls() PollRepository
	Votes() VoteRepository
}
