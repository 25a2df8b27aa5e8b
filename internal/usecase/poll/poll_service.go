package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
	"github.com/KiiTuNp/SUPERvote/internal/domain/events"
	"github.com/KiiTuNp/SUPERvote/internal/domain/repositories"
	usecaseErrors "github.com/KiiTuNp/SUPERvote/internal/usecase/errors"
	"github.com/KiiTuNp/SUPERvote/pkg/clock"
	"github.com/KiiTuNp/SUPERvote/pkg/idgen"
	"github.com/KiiTuNp/SUPERvote/pkg/metrics"
)

// PollService handles poll lifecycle and voting
type PollService struct {
	store     repositories.Store
	publisher events.Publisher
	clock     clock.Clock
	ids       idgen.Generator
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewPollService creates a new poll service. m may be nil.
func NewPollService(
	store repositories.Store,
	publisher events.Publisher,
	clk clock.Clock,
	ids idgen.Generator,
	logger *zap.Logger,
	m *metrics.Metrics,
) *PollService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PollService{
		store:     store,
		publisher: publisher,
		clock:     clk,
		ids:       ids,
		logger:    logger.Named("poll"),
		metrics:   m,
	}
}

// CreatePollInput represents input for creating a poll
type CreatePollInput struct {
	RoomID       string
	Question     string
	Options      []string
	TimerMinutes *int
}

// PollRef addresses a poll, optionally scoped to the room it must belong to
type PollRef struct {
	RoomID string
	PollID string
}

// CastVoteInput represents a vote request
type CastVoteInput struct {
	PollID           string
	ParticipantToken string
	OptionID         string
}

// PollSummary is a poll with its vote total
type PollSummary struct {
	Poll       *entities.Poll
	TotalVotes int64
}

// CreatePoll creates a poll in created state
func (s *PollService) CreatePoll(ctx context.Context, input CreatePollInput) (*entities.Poll, error) {
	room, err := s.activeRoom(ctx, input.RoomID)
	if err != nil {
		return nil, err
	}

	question, options, err := entities.ValidatePollInput(input.Question, input.Options, input.TimerMinutes)
	if err != nil {
		return nil, invalidPollInput(err)
	}

	now := s.clock.Now()
	poll := &entities.Poll{
		ID:           s.ids.NewEntityID(),
		RoomID:       room.ID,
		Question:     question,
		Options:      make([]entities.PollOption, 0, len(options)),
		Status:       entities.PollStatusCreated,
		TimerMinutes: input.TimerMinutes,
		CreatedAt:    now,
	}
	for _, text := range options {
		poll.Options = append(poll.Options, entities.PollOption{ID: s.ids.NewEntityID(), Text: text})
	}

	if err := s.store.Polls().Create(ctx, poll); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, usecaseErrors.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to create poll: %w", err)
	}

	s.touch(ctx, room.ID, now)
	s.publisher.Publish(ctx, room.ID, events.PollCreated(poll, now))

	s.logger.Info("poll.created",
		zap.String("room_id", room.ID),
		zap.String("poll_id", poll.ID),
		zap.Int("options", len(poll.Options)),
	)
	return poll, nil
}

// GetPoll retrieves a poll by ID
func (s *PollService) GetPoll(ctx context.Context, pollID string) (*entities.Poll, error) {
	return s.findPoll(ctx, PollRef{PollID: pollID})
}

// ListPolls retrieves the polls of an active room in creation order
func (s *PollService) ListPolls(ctx context.Context, roomID string) ([]*PollSummary, error) {
	room, err := s.activeRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	polls, err := s.store.Polls().FindByRoomID(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	totals, err := s.store.Votes().CountByPoll(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	out := make([]*PollSummary, 0, len(polls))
	for _, p := range polls {
		out = append(out, &PollSummary{Poll: p, TotalVotes: totals[p.ID]})
	}
	return out, nil
}

// StartPoll moves a created poll to active and sets its end time when a timer is configured
func (s *PollService) StartPoll(ctx context.Context, ref PollRef) (*entities.Poll, error) {
	poll, err := s.findPoll(ctx, ref)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	next, err := poll.Start(now)
	if err != nil {
		return nil, usecaseErrors.ErrPollNotCreated
	}
	if err := s.transition(ctx, next, poll.Status); err != nil {
		if errors.Is(err, repositories.ErrStaleState) {
			return nil, usecaseErrors.ErrPollNotCreated
		}
		return nil, err
	}

	s.touch(ctx, next.RoomID, now)
	s.publisher.Publish(ctx, next.RoomID, events.PollStarted(next, now))

	fields := []zap.Field{zap.String("room_id", next.RoomID), zap.String("poll_id", next.ID)}
	if next.EndsAt != nil {
		fields = append(fields, zap.Time("ends_at", *next.EndsAt))
	}
	s.logger.Info("poll.started", fields...)
	return next, nil
}

// StopPoll completes an active poll and publishes the final tallies. When two
// stops race, exactly one succeeds and the other reports the poll as not active.
func (s *PollService) StopPoll(ctx context.Context, ref PollRef, reason entities.StopReason) (*entities.Poll, error) {
	if !reason.IsValid() {
		return nil, usecaseErrors.ErrInvalidStopReason
	}

	poll, err := s.findPoll(ctx, ref)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	next, err := poll.Stop(now, reason)
	if err != nil {
		return nil, usecaseErrors.ErrPollNotActive
	}
	if err := s.transition(ctx, next, poll.Status); err != nil {
		if errors.Is(err, repositories.ErrStaleState) {
			return nil, usecaseErrors.ErrPollNotActive
		}
		return nil, err
	}

	results, err := s.tally(ctx, next)
	if err != nil {
		// the poll is already completed; clients can still fetch results later
		s.logger.Error("poll.stop.tally_failed", zap.String("poll_id", next.ID), zap.Error(err))
		results = entities.Tally(next, nil)
	}

	s.publisher.Publish(ctx, next.RoomID, events.PollStopped(next, reason, results, now))
	s.metrics.PollStopped(string(reason))

	s.logger.Info("poll.stopped",
		zap.String("room_id", next.RoomID),
		zap.String("poll_id", next.ID),
		zap.String("reason", string(reason)),
		zap.Int64("total_votes", results.Total),
	)
	return next, nil
}

// CancelPoll withdraws a created poll
func (s *PollService) CancelPoll(ctx context.Context, ref PollRef) (*entities.Poll, error) {
	poll, err := s.findPoll(ctx, ref)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	next, err := poll.Cancel(now)
	if err != nil {
		return nil, usecaseErrors.ErrPollNotCreated
	}
	if err := s.transition(ctx, next, poll.Status); err != nil {
		if errors.Is(err, repositories.ErrStaleState) {
			return nil, usecaseErrors.ErrPollNotCreated
		}
		return nil, err
	}

	s.publisher.Publish(ctx, next.RoomID, events.PollCancelled(next, now))
	return next, nil
}

// CastVote records a vote. Unknown tokens and participants that are not approved
// get the same answer as a missing participant. One vote per participant and poll
// is guaranteed by the store's unique index, not by the status checks here.
func (s *PollService) CastVote(ctx context.Context, input CastVoteInput) (*entities.PollResults, error) {
	participant, err := s.voter(ctx, input.ParticipantToken)
	if err != nil {
		return nil, err
	}

	poll, err := s.findPoll(ctx, PollRef{PollID: input.PollID})
	if err != nil {
		return nil, err
	}
	if poll.RoomID != participant.RoomID {
		return nil, usecaseErrors.ErrPollNotFound
	}
	if poll.Status != entities.PollStatusActive {
		return nil, usecaseErrors.ErrPollNotActive
	}
	if !poll.HasOption(input.OptionID) {
		return nil, usecaseErrors.ErrOptionNotInPoll
	}

	now := s.clock.Now()
	vote := &entities.Vote{
		ID:            s.ids.NewEntityID(),
		PollID:        poll.ID,
		ParticipantID: participant.ID,
		RoomID:        poll.RoomID,
		OptionID:      input.OptionID,
		CreatedAt:     now,
	}
	if err := s.store.Votes().Create(ctx, vote); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, usecaseErrors.ErrAlreadyVoted
		case errors.Is(err, repositories.ErrNotFound):
			return nil, usecaseErrors.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}
	s.metrics.VoteCast()
	s.touch(ctx, poll.RoomID, now)

	results, err := s.tally(ctx, poll)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, poll.RoomID, events.VoteCast(poll.RoomID, results, now))
	return results, nil
}

// GetResults tallies a poll in option order
func (s *PollService) GetResults(ctx context.Context, pollID string) (*entities.PollResults, error) {
	poll, err := s.findPoll(ctx, PollRef{PollID: pollID})
	if err != nil {
		return nil, err
	}
	return s.tally(ctx, poll)
}

// DuePolls lists active polls whose end time is not after now
func (s *PollService) DuePolls(ctx context.Context) ([]*entities.Poll, error) {
	polls, err := s.store.Polls().FindDue(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list due polls: %w", err)
	}
	return polls, nil
}

func (s *PollService) voter(ctx context.Context, token string) (*entities.Participant, error) {
	if token == "" {
		return nil, usecaseErrors.ErrInvalidToken
	}
	participant, err := s.store.Participants().FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, usecaseErrors.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	if !participant.IsApproved() {
		return nil, usecaseErrors.ErrInvalidToken
	}
	return participant, nil
}

func (s *PollService) findPoll(ctx context.Context, ref PollRef) (*entities.Poll, error) {
	poll, err := s.store.Polls().FindByID(ctx, ref.PollID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, usecaseErrors.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	if ref.RoomID != "" && poll.RoomID != entities.NormalizeRoomID(ref.RoomID) {
		return nil, usecaseErrors.ErrPollWrongRoom
	}
	return poll, nil
}

func (s *PollService) activeRoom(ctx context.Context, roomID string) (*entities.Room, error) {
	room, err := s.store.Rooms().FindByID(ctx, entities.NormalizeRoomID(roomID))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, usecaseErrors.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if !room.IsActive {
		return nil, usecaseErrors.ErrRoomInactive
	}
	return room, nil
}

func (s *PollService) transition(ctx context.Context, next *entities.Poll, from entities.PollStatus) error {
	err := s.store.Polls().UpdateStatus(ctx, next, from)
	if err == nil || errors.Is(err, repositories.ErrStaleState) {
		return err
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return usecaseErrors.ErrPollNotFound
	}
	return fmt.Errorf("failed to update poll: %w", err)
}

func (s *PollService) tally(ctx context.Context, poll *entities.Poll) (*entities.PollResults, error) {
	counts, err := s.store.Votes().CountByOption(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	return entities.Tally(poll, counts), nil
}

func (s *PollService) touch(ctx context.Context, roomID string, at time.Time) {
	if err := s.store.Rooms().Touch(ctx, roomID, at); err != nil {
		s.logger.Warn("room.touch.failed", zap.String("room_id", roomID), zap.Error(err))
	}
}

// invalidPollInput maps entity validation errors to the field they concern
func invalidPollInput(err error) error {
	switch {
	case errors.Is(err, entities.ErrEmptyQuestion), errors.Is(err, entities.ErrQuestionTooLong):
		return usecaseErrors.Invalid("question", err.Error())
	case errors.Is(err, entities.ErrInvalidTimer):
		return usecaseErrors.Invalid("timer_minutes", err.Error())
	default:
		return usecaseErrors.Invalid("options", err.Error())
	}
}
