package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/KiiTuNp/SUPERvote/errors"
	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
	authMiddleware "github.com/KiiTuNp/SUPERvote/internal/infrastructure/http/middleware"
)

const (
	// ParticipantTokenHeader carries the participant capability token
	ParticipantTokenHeader = "X-Participant-Token"
	// ParticipantTokenKey is the echo context key holding the raw participant token
	ParticipantTokenKey = "participant_token"
)

// RequireRoomOrganizer middleware: only allow the organizer of the room named by the room_id param.
// Must run after EchoOrganizerAuth.
func RequireRoomOrganizer() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := authMiddleware.GetOrganizerClaims(c)
			if !ok {
				return errors.ErrUnauthenticated()
			}
			roomID := entities.NormalizeRoomID(c.Param("room_id"))
			if claims.RoomID != roomID {
				return errors.ErrRoomAccessDenied(roomID)
			}
			return next(c)
		}
	}
}

// RequireParticipantToken middleware: reject requests without a participant token.
// Whether the token is valid is decided by the use case.
func RequireParticipantToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := strings.TrimSpace(c.Request().Header.Get(ParticipantTokenHeader))
			if token == "" {
				return errors.ErrUnauthenticated()
			}
			c.Set(ParticipantTokenKey, token)
			return next(c)
		}
	}
}

// GetParticipantToken retrieves the token set by RequireParticipantToken
func GetParticipantToken(c echo.Context) string {
	token, _ := c.Get(ParticipantTokenKey).(string)
	return token
}
