package poll

import (
	"context"

	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
)

// Service defines the interface for the poll and voting use case
type Service interface {
	// CreatePoll adds a poll in created state to an active room
	CreatePoll(ctx context.Context, input CreatePollInput) (*entities.Poll, error)

	// GetPoll retrieves a poll by ID
	GetPoll(ctx context.Context, pollID string) (*entities.Poll, error)

	// ListPolls retrieves the polls of a room with their vote totals
	ListPolls(ctx context.Context, roomID string) ([]*PollSummary, error)

	// StartPoll opens a created poll for voting
	StartPoll(ctx context.Context, ref PollRef) (*entities.Poll, error)

	// StopPoll completes an active poll
	StopPoll(ctx context.Context, ref PollRef, reason entities.StopReason) (*entities.Poll, error)

	// CancelPoll withdraws a poll that never started
	CancelPoll(ctx context.Context, ref PollRef) (*entities.Poll, error)

	// CastVote records one participant's vote and returns the updated tallies
	CastVote(ctx context.Context, input CastVoteInput) (*entities.PollResults, error)

	// GetResults tallies a poll in any status
	GetResults(ctx context.Context, pollID string) (*entities.PollResults, error)

	// DuePolls lists active polls whose timer has run out
	DuePolls(ctx context.Context) ([]*entities.Poll, error)
}

// Ensure PollService implements Service interface
var _ Service = (*PollService)(nil)
