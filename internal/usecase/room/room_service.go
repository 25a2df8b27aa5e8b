package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
	"github.com/KiiTuNp/SUPERvote/internal/domain/events"
	"github.com/KiiTuNp/SUPERvote/internal/domain/repositories"
	usecaseErrors "github.com/KiiTuNp/SUPERvote/internal/usecase/errors"
	"github.com/KiiTuNp/SUPERvote/pkg/clock"
	"github.com/KiiTuNp/SUPERvote/pkg/idgen"
	"github.com/KiiTuNp/SUPERvote/pkg/jobcontext"
)

// maxRoomIDAttempts bounds retries when a generated room code is already taken
const maxRoomIDAttempts = 5

// Room close reasons carried by room_closed events
const (
	CloseReasonExpired = "expired"
	CloseReasonDeleted = "closed_by_organizer"
)

// TokenIssuer issues the organizer capability for a new room
type TokenIssuer interface {
	GenerateOrganizerToken(roomID, organizerName string) (string, error)
}

// ConnectionCounter reports live connections per room
type ConnectionCounter interface {
	ConnectionCount(roomID string) int
}

// RoomService handles room business logic
type RoomService struct {
	store     repositories.Store
	publisher events.Publisher
	clock     clock.Clock
	ids       idgen.Generator
	logger    *zap.Logger

	tokens      TokenIssuer
	connections ConnectionCounter
}

// Option configures optional collaborators of RoomService
type Option func(*RoomService)

// WithTokenIssuer makes CreateRoom return an organizer token
func WithTokenIssuer(issuer TokenIssuer) Option {
	return func(s *RoomService) { s.tokens = issuer }
}

// WithConnectionCounter makes GetRoomStatus report connected clients
func WithConnectionCounter(counter ConnectionCounter) Option {
	return func(s *RoomService) { s.connections = counter }
}

// NewRoomService creates a new room service
func NewRoomService(
	store repositories.Store,
	publisher events.Publisher,
	clk clock.Clock,
	ids idgen.Generator,
	logger *zap.Logger,
	opts ...Option,
) *RoomService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RoomService{
		store:     store,
		publisher: publisher,
		clock:     clk,
		ids:       ids,
		logger:    logger.Named("room"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRoomInput represents input for creating a room
type CreateRoomInput struct {
	OrganizerName string
	// RoomID is an optional custom code; a random one is generated when empty
	RoomID string
}

// CreateRoomOutput represents the created room and the organizer's token
type CreateRoomOutput struct {
	Room           *entities.Room
	OrganizerToken string
}

// JoinRoomInput represents input for joining a room
type JoinRoomInput struct {
	RoomID string
	Name   string
}

// SetApprovalInput represents an organizer decision. RoomID, when set, must own the participant.
type SetApprovalInput struct {
	RoomID        string
	ParticipantID string
	Approved      bool
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

// RoomStatus is the read model behind the room status endpoint
type RoomStatus struct {
	Room             *entities.Room
	Participants     ParticipantCounts
	Polls            PollCounts
	ConnectedClients int
}

// CreateRoom creates a new room
func (s *RoomService) CreateRoom(ctx context.Context, input CreateRoomInput) (*CreateRoomOutput, error) {
	name, err := entities.ValidateDisplayName(input.OrganizerName, entities.MaxOrganizerNameLength)
	if err != nil {
		return nil, usecaseErrors.Invalid("organizer_name", err.Error())
	}

	now := s.clock.Now()

	var room *entities.Room
	if input.RoomID != "" {
		if err := entities.ValidateRoomID(input.RoomID); err != nil {
			return nil, usecaseErrors.Invalid("room_id", err.Error())
		}
		room = entities.NewRoom(entities.NormalizeRoomID(input.RoomID), name, now)
		if err := s.store.Rooms().Create(ctx, room); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return nil, usecaseErrors.ErrRoomIDTaken
			}
			return nil, fmt.Errorf("failed to create room: %w", err)
		}
	} else {
		room, err = s.createWithGeneratedID(ctx, name, now)
		if err != nil {
			return nil, err
		}
	}

	out := &CreateRoomOutput{Room: room}
	if s.tokens != nil {
		token, err := s.tokens.GenerateOrganizerToken(room.ID, room.OrganizerName)
		if err != nil {
			return nil, fmt.Errorf("failed to issue organizer token: %w", err)
		}
		out.OrganizerToken = token
	}

	s.logger.Info("room.created", zap.String("room_id", room.ID))
	return out, nil
}

// createWithGeneratedID retries with a fresh code while the store reports a duplicate
func (s *RoomService) createWithGeneratedID(ctx context.Context, name string, now time.Time) (*entities.Room, error) {
	var room *entities.Room
	op := func() error {
		candidate := entities.NewRoom(s.ids.NewRoomID(), name, now)
		err := s.store.Rooms().Create(ctx, candidate)
		if errors.Is(err, repositories.ErrDuplicate) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		room = candidate
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, maxRoomIDAttempts-1), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, usecaseErrors.ErrRoomIDExhausted
		}
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return room, nil
}

// GetRoom retrieves a room by ID
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*entities.Room, error) {
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

// GetRoomStatus returns the room together with live counts
func (s *RoomService) GetRoomStatus(ctx context.Context, roomID string) (*RoomStatus, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.store.Participants().CountByStatus(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	polls, err := s.store.Polls().FindByRoomID(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}

	status := &RoomStatus{Room: room}
	status.Participants = ParticipantCounts{
		Pending:  byStatus[entities.ApprovalStatusPending],
		Approved: byStatus[entities.ApprovalStatusApproved],
		Denied:   byStatus[entities.ApprovalStatusDenied],
	}
	status.Participants.Total = status.Participants.Pending + status.Participants.Approved + status.Participants.Denied

	for _, p := range polls {
		switch p.Status {
		case entities.PollStatusCreated:
			status.Polls.Created++
		case entities.PollStatusActive:
			status.Polls.Active++
		case entities.PollStatusCompleted:
			status.Polls.Completed++
		case entities.PollStatusCancelled:
			status.Polls.Cancelled++
		}
	}
	status.Polls.Total = int64(len(polls))

	if s.connections != nil {
		status.ConnectedClients = s.connections.ConnectionCount(room.ID)
	}
	return status, nil
}

// JoinRoom registers a pending participant and notifies the room
func (s *RoomService) JoinRoom(ctx context.Context, input JoinRoomInput) (*entities.Participant, error) {
	room, err := s.GetRoom(ctx, input.RoomID)
	if err != nil {
		return nil, err
	}

	name, err := entities.ValidateDisplayName(input.Name, entities.MaxParticipantNameLength)
	if err != nil {
		return nil, usecaseErrors.Invalid("participant_name", err.Error())
	}

	token, err := s.ids.NewToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate participant token: %w", err)
	}

	now := s.clock.Now()
	participant := entities.NewParticipant(s.ids.NewEntityID(), room.ID, name, token, now)

	// The store's unique (room_id, normalized_name) index decides concurrent joins
	if err := s.store.Participants().Create(ctx, participant); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, usecaseErrors.ErrParticipantNameTaken
		case errors.Is(err, repositories.ErrNotFound):
			return nil, usecaseErrors.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}

	s.touch(ctx, room.ID, now)
	s.publisher.Publish(ctx, room.ID, events.ParticipantJoined(participant, now))

	return participant, nil
}

// SetApproval approves or denies a pending participant. The decision is final:
// repeating it is a no-op, reversing it is a conflict.
func (s *RoomService) SetApproval(ctx context.Context, input SetApprovalInput) (*entities.Participant, error) {
	participant, err := s.findParticipant(ctx, input.ParticipantID)
	if err != nil {
		return nil, err
	}
	if input.RoomID != "" && participant.RoomID != entities.NormalizeRoomID(input.RoomID) {
		return nil, usecaseErrors.ErrParticipantNotFound
	}

	next, err := participant.Decide(input.Approved)
	if err != nil {
		return nil, usecaseErrors.ErrApprovalAlreadySet
	}
	if next.ApprovalStatus == participant.ApprovalStatus {
		return next, nil
	}

	err = s.store.Participants().UpdateApproval(ctx, participant.ID, participant.ApprovalStatus, next.ApprovalStatus)
	if errors.Is(err, repositories.ErrStaleState) {
		// someone decided first; identical decisions converge
		current, findErr := s.findParticipant(ctx, participant.ID)
		if findErr != nil {
			return nil, findErr
		}
		if current.ApprovalStatus == next.ApprovalStatus {
			return current, nil
		}
		return nil, usecaseErrors.ErrApprovalAlreadySet
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update participant: %w", err)
	}

	s.publisher.Publish(ctx, next.RoomID, events.ParticipantStatusChanged(next, s.clock.Now()))
	return next, nil
}

// ListParticipants retrieves the participants of a room in join order
func (s *RoomService) ListParticipants(ctx context.Context, roomID string, status *entities.ApprovalStatus) ([]*entities.Participant, error) {
	if status != nil && !status.IsValid() {
		return nil, usecaseErrors.Invalid("status", "must be pending, approved or denied")
	}
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	participants, err := s.store.Participants().FindByRoomID(ctx, room.ID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

// GetParticipantByToken resolves a token. Unknown tokens are reported as a missing participant.
func (s *RoomService) GetParticipantByToken(ctx context.Context, token string) (*entities.Participant, error) {
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
	return participant, nil
}

// DeleteRoom notifies connected clients and removes the room with everything it owns
func (s *RoomService) DeleteRoom(ctx context.Context, roomID string) error {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}

	s.publisher.Publish(ctx, room.ID, events.RoomClosed(room.ID, CloseReasonDeleted, s.clock.Now()))
	if err := s.purge(ctx, room.ID); err != nil {
		return err
	}

	s.logger.Info("room.deleted", zap.String("room_id", room.ID))
	return nil
}

// ExpireInactiveRooms removes every active room idle since before cutoff. Idleness
// is re-checked at delete time, so a room touched after the listing survives. A
// room that fails to purge does not stop the others.
func (s *RoomService) ExpireInactiveRooms(ctx context.Context, cutoff time.Time) (int, error) {
	rooms, err := s.store.Rooms().FindExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired rooms: %w", err)
	}

	var (
		expired int
		errs    []error
	)
	for _, room := range rooms {
		err := jobcontext.RunIsolated(ctx, room.ID, func(ctx context.Context) error {
			if err := s.store.Rooms().DeleteIdle(ctx, room.ID, cutoff); err != nil {
				return err
			}
			s.publisher.Publish(ctx, room.ID, events.RoomClosed(room.ID, CloseReasonExpired, s.clock.Now()))
			return s.purgeChildren(ctx, room.ID)
		})
		if errors.Is(err, repositories.ErrStaleState) {
			s.logger.Info("room.expire.skipped", zap.String("room_id", room.ID))
			continue
		}
		if err != nil {
			s.logger.Error("room.expire.failed", zap.String("room_id", room.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		expired++
		s.logger.Info("room.expired",
			zap.String("room_id", room.ID),
			zap.Time("last_activity", room.LastActivity),
		)
	}
	return expired, errors.Join(errs...)
}

// purge deletes children before the room so a partial failure leaves the room
// in place for a retry. Every step is a no-op on missing data.
func (s *RoomService) purge(ctx context.Context, roomID string) error {
	if err := s.purgeChildren(ctx, roomID); err != nil {
		return err
	}
	if err := s.store.Rooms().Delete(ctx, roomID); err != nil {
		return fmt.Errorf("failed to delete room %s: %w", roomID, err)
	}
	return nil
}

// purgeChildren removes the votes, polls and participants of roomID. Stores
// with cascading deletes have usually done this already.
func (s *RoomService) purgeChildren(ctx context.Context, roomID string) error {
	if _, err := s.store.Votes().DeleteByRoomID(ctx, roomID); err != nil {
		return fmt.Errorf("failed to delete votes of room %s: %w", roomID, err)
	}
	if _, err := s.store.Polls().DeleteByRoomID(ctx, roomID); err != nil {
		return fmt.Errorf("failed to delete polls of room %s: %w", roomID, err)
	}
	if _, err := s.store.Participants().DeleteByRoomID(ctx, roomID); err != nil {
		return fmt.Errorf("failed to delete participants of room %s: %w", roomID, err)
	}
	return nil
}

func (s *RoomService) findParticipant(ctx context.Context, id string) (*entities.Participant, error) {
	participant, err := s.store.Participants().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, usecaseErrors.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return participant, nil
}

// touch bumps last activity. It is a liveness hint, so failures are only logged.
func (s *RoomService) touch(ctx context.Context, roomID string, at time.Time) {
	if err := s.store.Rooms().Touch(ctx, roomID, at); err != nil {
		s.logger.Warn("room.touch.failed", zap.String("room_id", roomID), zap.Error(err))
	}
}
