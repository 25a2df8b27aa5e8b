package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/KiiTuNp/SUPERvote/internal/adapter/dto/poll"
	"github.com/KiiTuNp/SUPERvote/internal/adapter/presenter"
	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
	pollUsecase "github.com/KiiTuNp/SUPERvote/internal/usecase/poll"
	"github.com/KiiTuNp/SUPERvote/pkg/middleware"
)

// Poll handles poll and vote HTTP requests
type Poll struct {
	pollService pollUsecase.Service
	logger      *zap.Logger
}

// NewPollHandler creates a new poll handler
func NewPollHandler(pollService pollUsecase.Service, logger *zap.Logger) *Poll {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poll{
		pollService: pollService,
		logger:      logger.Named("poll_handler"),
	}
}

// CreatePoll handles POST /rooms/:room_id/polls
// @Summary      Create a poll
// @Tags         Polls
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        room_id  path      string                  true  "Room ID"
// @Param        request  body      poll.CreatePollRequest  true  "Question, options and optional timer"
// @Success      201      {object}  poll.PollResponse
// @Failure      400      {object}  map[string]interface{}  "Validation failed"
// @Router       /rooms/{room_id}/polls [post]
func (h *Poll) CreatePoll(c echo.Context) error {
	var req poll.CreatePollRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	created, err := h.pollService.CreatePoll(c.Request().Context(), pollUsecase.CreatePollInput{
		RoomID:       c.Param("room_id"),
		Question:     req.Question,
		Options:      req.Options,
		TimerMinutes: req.TimerMinutes,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToPollResponse(created))
}

// ListPolls handles GET /rooms/:room_id/polls
// @Summary      List the polls of a room
// @Tags         Polls
// @Produce      json
// @Param        room_id  path      string  true  "Room ID"
// @Success      200      {object}  poll.ListPollsResponse
// @Router       /rooms/{room_id}/polls [get]
func (h *Poll) ListPolls(c echo.Context) error {
	summaries, err := h.pollService.ListPolls(c.Request().Context(), c.Param("room_id"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToPollList(summaries))
}

// GetPoll handles GET /polls/:poll_id
// @Summary      Get a poll
// @Tags         Polls
// @Produce      json
// @Param        poll_id  path      string  true  "Poll ID"
// @Success      200      {object}  poll.PollResponse
// @Failure      404      {object}  map[string]interface{}  "Poll not found"
// @Router       /polls/{poll_id} [get]
func (h *Poll) GetPoll(c echo.Context) error {
	found, err := h.pollService.GetPoll(c.Request().Context(), c.Param("poll_id"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToPollResponse(found))
}

// StartPoll handles POST /rooms/:room_id/polls/:poll_id/start
// @Summary      Start a poll
// @Tags         Polls
// @Security     BearerAuth
// @Success      200  {object}  poll.PollResponse
// @Failure      409  {object}  map[string]interface{}  "Poll is not in created state"
// @Router       /rooms/{room_id}/polls/{poll_id}/start [post]
func (h *Poll) StartPoll(c echo.Context) error {
	started, err := h.pollService.StartPoll(c.Request().Context(), pollRef(c))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToPollResponse(started))
}

// StopPoll handles POST /rooms/:room_id/polls/:poll_id/stop
// @Summary      Stop a poll
// @Description  Completes an active poll and broadcasts the final results
// @Tags         Polls
// @Security     BearerAuth
// @Success      200  {object}  poll.PollResponse
// @Failure      409  {object}  map[string]interface{}  "Poll is not active"
// @Router       /rooms/{room_id}/polls/{poll_id}/stop [post]
func (h *Poll) StopPoll(c echo.Context) error {
	stopped, err := h.pollService.StopPoll(c.Request().Context(), pollRef(c), entities.StopReasonManual)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToPollResponse(stopped))
}

// CancelPoll handles POST /rooms/:room_id/polls/:poll_id/cancel
// @Summary      Cancel a poll that never started
// @Tags         Polls
// @Security     BearerAuth
// @Success      200  {object}  poll.PollResponse
// @Failure      409  {object}  map[string]interface{}  "Poll is not in created state"
// @Router       /rooms/{room_id}/polls/{poll_id}/cancel [post]
func (h *Poll) CancelPoll(c echo.Context) error {
	cancelled, err := h.pollService.CancelPoll(c.Request().Context(), pollRef(c))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToPollResponse(cancelled))
}

// CastVote handles POST /polls/:poll_id/votes
// @Summary      Vote in a poll
// @Tags         Votes
// @Accept       json
// @Produce      json
// @Param        X-Participant-Token  header    string                true  "Participant token"
// @Param        poll_id              path      string                true  "Poll ID"
// @Param        request              body      poll.CastVoteRequest  true  "Chosen option"
// @Success      201                  {object}  poll.ResultsResponse
// @Failure      404                  {object}  map[string]interface{}  "Poll or participant not found"
// @Failure      409                  {object}  map[string]interface{}  "Poll not active or already voted"
// @Router       /polls/{poll_id}/votes [post]
func (h *Poll) CastVote(c echo.Context) error {
	var req poll.CastVoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	results, err := h.pollService.CastVote(c.Request().Context(), pollUsecase.CastVoteInput{
		PollID:           c.Param("poll_id"),
		ParticipantToken: middleware.GetParticipantToken(c),
		OptionID:         req.OptionID,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToResultsResponse(results))
}

// GetResults handles GET /polls/:poll_id/results
// @Summary      Get poll results
// @Tags         Votes
// @Produce      json
// @Param        poll_id  path      string  true  "Poll ID"
// @Success      200      {object}  poll.ResultsResponse
// @Router       /polls/{poll_id}/results [get]
func (h *Poll) GetResults(c echo.Context) error {
	results, err := h.pollService.GetResults(c.Request().Context(), c.Param("poll_id"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToResultsResponse(results))
}

func pollRef(c echo.Context) pollUsecase.PollRef {
	return pollUsecase.PollRef{RoomID: c.Param("room_id"), PollID: c.Param("poll_id")}
}
