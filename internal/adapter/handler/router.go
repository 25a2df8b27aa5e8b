package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KiiTuNp/SUPERvote/pkg/middleware"
)

// Router holds all handlers
type Router struct {
	roomHandler     *Room
	pollHandler     *Poll
	realtimeHandler *Realtime
	healthHandler   *Health
	organizerAuth   echo.MiddlewareFunc
}

// NewRouter creates a new router with all handlers. organizerAuth validates
// the organizer bearer token on organizer routes.
func NewRouter(roomHandler *Room, pollHandler *Poll, realtimeHandler *Realtime, healthHandler *Health, organizerAuth echo.MiddlewareFunc) *Router {
	return &Router{
		roomHandler:     roomHandler,
		pollHandler:     pollHandler,
		realtimeHandler: realtimeHandler,
		healthHandler:   healthHandler,
		organizerAuth:   organizerAuth,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupRoomRoutes(v1)
	rt.setupPollRoutes(v1)
	rt.setupParticipantRoutes(v1)
}

// setupRoomRoutes configures room, participant management and subscription routes
func (rt *Router) setupRoomRoutes(g *echo.Group) {
	rooms := g.Group("/rooms")
	rooms.POST("", rt.roomHandler.CreateRoom)
	rooms.GET("/:room_id", rt.roomHandler.GetRoomStatus)
	rooms.POST("/:room_id/join", rt.roomHandler.JoinRoom)
	rooms.GET("/:room_id/polls", rt.pollHandler.ListPolls)
	rooms.GET("/:room_id/ws", rt.realtimeHandler.Subscribe)

	organizer := rooms.Group("/:room_id", rt.organizerAuth, middleware.RequireRoomOrganizer())
	organizer.DELETE("", rt.roomHandler.DeleteRoom)
	organizer.GET("/participants", rt.roomHandler.ListParticipants)
	organizer.POST("/participants/:participant_id/approve", rt.roomHandler.ApproveParticipant)
	organizer.POST("/participants/:participant_id/deny", rt.roomHandler.DenyParticipant)
	organizer.POST("/polls", rt.pollHandler.CreatePoll)
	organizer.POST("/polls/:poll_id/start", rt.pollHandler.StartPoll)
	organizer.POST("/polls/:poll_id/stop", rt.pollHandler.StopPoll)
	organizer.POST("/polls/:poll_id/cancel", rt.pollHandler.CancelPoll)
}

// setupPollRoutes configures poll reads and voting
func (rt *Router) setupPollRoutes(g *echo.Group) {
	polls := g.Group("/polls")
	polls.GET("/:poll_id", rt.pollHandler.GetPoll)
	polls.GET("/:poll_id/results", rt.pollHandler.GetResults)
	polls.POST("/:poll_id/votes", rt.pollHandler.CastVote, middleware.RequireParticipantToken())
}

// setupParticipantRoutes configures token-authenticated participant routes
func (rt *Router) setupParticipantRoutes(g *echo.Group) {
	participants := g.Group("/participants", middleware.RequireParticipantToken())
	participants.GET("/me", rt.roomHandler.GetMe)
}
