package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Role names carried in organizer tokens
const (
	RoleOrganizer = "organizer"
)

// Claims represents JWT custom claims
type Claims struct {
	RoomID        string `json:"room_id"`
	OrganizerName string `json:"organizer_name"`
	Role          string `json:"role"`
	jwt.RegisteredClaims
}
