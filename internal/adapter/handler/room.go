package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/KiiTuNp/SUPERvote/errors"
	"github.com/KiiTuNp/SUPERvote/internal/adapter/dto/common"
	"github.com/KiiTuNp/SUPERvote/internal/adapter/dto/room"
	"github.com/KiiTuNp/SUPERvote/internal/adapter/presenter"
	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
	roomUsecase "github.com/KiiTuNp/SUPERvote/internal/usecase/room"
	"github.com/KiiTuNp/SUPERvote/pkg/middleware"
)

// Room handles room and participant HTTP requests
type Room struct {
	roomService roomUsecase.Service
	tokenTTL    time.Duration
	logger      *zap.Logger
}

// NewRoomHandler creates a new room handler. tokenTTL is reported as expires_in on room creation.
func NewRoomHandler(roomService roomUsecase.Service, tokenTTL time.Duration, logger *zap.Logger) *Room {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Room{
		roomService: roomService,
		tokenTTL:    tokenTTL,
		logger:      logger.Named("room_handler"),
	}
}

// CreateRoom handles POST /rooms
// @Summary      Create a new room
// @Description  Creates a voting room and returns the organizer token
// @Tags         Rooms
// @Accept       json
// @Produce      json
// @Param        request  body      room.CreateRoomRequest  true  "Room creation request"
// @Success      201      {object}  room.CreateRoomResponse
// @Failure      400      {object}  map[string]interface{}  "Validation failed"
// @Failure      409      {object}  map[string]interface{}  "Room ID already in use"
// @Router       /rooms [post]
func (h *Room) CreateRoom(c echo.Context) error {
	var req room.CreateRoomRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	output, err := h.roomService.CreateRoom(c.Request().Context(), roomUsecase.CreateRoomInput{
		OrganizerName: req.OrganizerName,
		RoomID:        req.RoomID,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, &room.CreateRoomResponse{
		Room:           presenter.ToRoomResponse(output.Room),
		OrganizerToken: output.OrganizerToken,
		ExpiresIn:      int64(h.tokenTTL.Seconds()),
	})
}

// GetRoomStatus handles GET /rooms/:room_id
// @Summary      Get room status
// @Tags         Rooms
// @Produce      json
// @Param        room_id  path      string  true  "Room ID"
// @Success      200      {object}  room.RoomStatusResponse
// @Failure      404      {object}  map[string]interface{}  "Room not found"
// @Router       /rooms/{room_id} [get]
func (h *Room) GetRoomStatus(c echo.Context) error {
	status, err := h.roomService.GetRoomStatus(c.Request().Context(), c.Param("room_id"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToRoomStatusResponse(status))
}

// DeleteRoom handles DELETE /rooms/:room_id
// @Summary      Close a room
// @Description  Notifies live clients, then removes the room with its participants, polls and votes
// @Tags         Rooms
// @Security     BearerAuth
// @Param        room_id  path      string  true  "Room ID"
// @Success      200      {object}  common.MessageResponse
// @Router       /rooms/{room_id} [delete]
func (h *Room) DeleteRoom(c echo.Context) error {
	if err := h.roomService.DeleteRoom(c.Request().Context(), c.Param("room_id")); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, &common.MessageResponse{Message: "room closed"})
}

// JoinRoom handles POST /rooms/:room_id/join
// @Summary      Join a room
// @Description  Registers a pending participant and returns its token once
// @Tags         Participants
// @Accept       json
// @Produce      json
// @Param        room_id  path      string                true  "Room ID"
// @Param        request  body      room.JoinRoomRequest  true  "Participant name"
// @Success      201      {object}  room.JoinRoomResponse
// @Failure      404      {object}  map[string]interface{}  "Room not found"
// @Failure      409      {object}  map[string]interface{}  "Name already taken"
// @Router       /rooms/{room_id}/join [post]
func (h *Room) JoinRoom(c echo.Context) error {
	var req room.JoinRoomRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	participant, err := h.roomService.JoinRoom(c.Request().Context(), roomUsecase.JoinRoomInput{
		RoomID: c.Param("room_id"),
		Name:   req.ParticipantName,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, &room.JoinRoomResponse{
		Participant:      presenter.ToParticipantResponse(participant),
		ParticipantToken: participant.Token,
	})
}

// ListParticipants handles GET /rooms/:room_id/participants
// @Summary      List participants
// @Tags         Participants
// @Security     BearerAuth
// @Param        room_id  path      string  true   "Room ID"
// @Param        status   query     string  false  "pending, approved or denied"
// @Success      200      {object}  room.ListParticipantsResponse
// @Router       /rooms/{room_id}/participants [get]
func (h *Room) ListParticipants(c echo.Context) error {
	var req room.ListParticipantsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	var status *entities.ApprovalStatus
	if req.Status != "" {
		s := entities.ApprovalStatus(req.Status)
		status = &s
	}

	participants, err := h.roomService.ListParticipants(c.Request().Context(), c.Param("room_id"), status)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToParticipantList(participants))
}

// ApproveParticipant handles POST /rooms/:room_id/participants/:participant_id/approve
// @Summary      Approve a participant
// @Tags         Participants
// @Security     BearerAuth
// @Success      200  {object}  room.ParticipantResponse
// @Failure      409  {object}  map[string]interface{}  "Already denied"
// @Router       /rooms/{room_id}/participants/{participant_id}/approve [post]
func (h *Room) ApproveParticipant(c echo.Context) error {
	return h.setApproval(c, true)
}

// DenyParticipant handles POST /rooms/:room_id/participants/:participant_id/deny
// @Summary      Deny a participant
// @Tags         Participants
// @Security     BearerAuth
// @Success      200  {object}  room.ParticipantResponse
// @Failure      409  {object}  map[string]interface{}  "Already approved"
// @Router       /rooms/{room_id}/participants/{participant_id}/deny [post]
func (h *Room) DenyParticipant(c echo.Context) error {
	return h.setApproval(c, false)
}

func (h *Room) setApproval(c echo.Context, approved bool) error {
	participant, err := h.roomService.SetApproval(c.Request().Context(), roomUsecase.SetApprovalInput{
		RoomID:        c.Param("room_id"),
		ParticipantID: c.Param("participant_id"),
		Approved:      approved,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToParticipantResponse(participant))
}

// GetMe handles GET /participants/me
// @Summary      Resolve the caller's participant token
// @Tags         Participants
// @Param        X-Participant-Token  header    string  true  "Participant token"
// @Success      200                  {object}  room.ParticipantResponse
// @Failure      404                  {object}  map[string]interface{}  "Participant not found"
// @Router       /participants/me [get]
func (h *Room) GetMe(c echo.Context) error {
	participant, err := h.roomService.GetParticipantByToken(c.Request().Context(), middleware.GetParticipantToken(c))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToParticipantResponse(participant))
}

// bindAndValidate binds the request and runs the echo validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.ErrInvalidPayload(err)
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}
