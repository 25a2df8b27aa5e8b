package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/KiiTuNp/SUPERvote/errors"
	"github.com/KiiTuNp/SUPERvote/pkg/jwt"
)

const (
	// OrganizerClaimsKey is the echo context key holding *jwt.Claims
	OrganizerClaimsKey = "organizer_claims"
)

// TokenValidator validates organizer tokens
type TokenValidator interface {
	ValidateOrganizerToken(token string) (*jwt.Claims, error)
}

// EchoOrganizerAuth returns an Echo middleware that validates the organizer
// bearer token and sets its claims into the Echo context
func EchoOrganizerAuth(validator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return errors.ErrUnauthenticated()
			}

			claims, err := validator.ValidateOrganizerToken(token)
			if err != nil {
				appErr := errors.ErrInvalidToken()
				appErr.Raw = err
				return appErr
			}

			c.Set(OrganizerClaimsKey, claims)
			return next(c)
		}
	}
}

// GetOrganizerClaims retrieves the claims set by EchoOrganizerAuth
func GetOrganizerClaims(c echo.Context) (*jwt.Claims, bool) {
	claims, ok := c.Get(OrganizerClaimsKey).(*jwt.Claims)
	return claims, ok
}

// extractBearer expects "Bearer <token>"
func extractBearer(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
