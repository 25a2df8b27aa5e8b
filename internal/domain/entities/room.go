package entities

import (
	"regexp"
	"strings"
	"time"
)

const (
	MaxRoomIDLength          = 10
	MinRoomIDLength          = 3
	MaxOrganizerNameLength   = 50
	MaxParticipantNameLength = 50
)

var roomIDPattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// Room is an isolated voting session owned by an organizer
type Room struct {
	ID            string    `gorm:"type:varchar(10);primaryKey" json:"id"`
	OrganizerName string    `gorm:"type:varchar(50);not null" json:"organizer_name"`
	IsActive      bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	LastActivity  time.Time `gorm:"not null;index" json:"last_activity"`
}

// TableName specifies the table name for Room
func (Room) TableName() string {
	return "rooms"
}

// NewRoom builds an active room whose last activity equals its creation time
func NewRoom(id, organizerName string, now time.Time) *Room {
	return &Room{
		ID:            id,
		OrganizerName: strings.TrimSpace(organizerName),
		IsActive:      true,
		CreatedAt:     now,
		LastActivity:  now,
	}
}

// IsExpired reports whether the room has been idle since before cutoff
func (r *Room) IsExpired(cutoff time.Time) bool {
	return r.IsActive && r.LastActivity.Before(cutoff)
}

// Touched returns a copy with last activity moved forward to at. It never moves backwards.
func (r Room) Touched(at time.Time) *Room {
	if at.After(r.LastActivity) {
		r.LastActivity = at
	}
	return &r
}

// NormalizeRoomID upper-cases and trims a user supplied room code
func NormalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// ValidateRoomID checks a custom room code: 3 to 10 alphanumeric characters after normalization
func ValidateRoomID(id string) error {
	id = NormalizeRoomID(id)
	if len(id) < MinRoomIDLength || len(id) > MaxRoomIDLength {
		return ErrInvalidRoomID
	}
	if !roomIDPattern.MatchString(id) {
		return ErrInvalidRoomID
	}
	return nil
}

// ValidateDisplayName trims name and checks it is non-empty and at most max characters
func ValidateDisplayName(name string, max int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if len([]rune(name)) > max {
		return "", ErrNameTooLong
	}
	return name, nil
}
