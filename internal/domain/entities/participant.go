package entities

import (
	"strings"
	"time"
)

// ApprovalStatus represents the organizer's decision on a participant
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusDenied   ApprovalStatus = "denied"
)

// IsValid reports whether s is a known approval status
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusDenied:
		return true
	}
	return false
}

// Participant is a named, token-authenticated voter scoped to one room
type Participant struct {
	ID             string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	RoomID         string         `gorm:"type:varchar(10);not null;index;uniqueIndex:idx_participants_room_name" json:"room_id"`
	Name           string         `gorm:"type:varchar(50);not null" json:"name"`
	NormalizedName string         `gorm:"type:varchar(50);not null;uniqueIndex:idx_participants_room_name" json:"-"`
	Token          string         `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`
	ApprovalStatus ApprovalStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"approval_status"`
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`
	JoinedAt       time.Time      `gorm:"not null" json:"joined_at"`
}

// TableName specifies the table name for Participant
func (Participant) TableName() string {
	return "participants"
}

// NormalizeName folds a display name for per-room uniqueness checks
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// NewParticipant builds a pending participant
func NewParticipant(id, roomID, name, token string, now time.Time) *Participant {
	name = strings.TrimSpace(name)
	return &Participant{
		ID:             id,
		RoomID:         roomID,
		Name:           name,
		NormalizedName: NormalizeName(name),
		Token:          token,
		ApprovalStatus: ApprovalStatusPending,
		IsActive:       true,
		JoinedAt:       now,
	}
}

// IsApproved checks if the participant may vote
func (p *Participant) IsApproved() bool {
	return p.IsActive && p.ApprovalStatus == ApprovalStatusApproved
}

// Decide applies the organizer's decision. Only pending participants can be decided;
// repeating the decision already taken returns an unchanged copy.
func (p Participant) Decide(approved bool) (*Participant, error) {
	target := ApprovalStatusDenied
	if approved {
		target = ApprovalStatusApproved
	}
	switch p.ApprovalStatus {
	case ApprovalStatusPending:
		p.ApprovalStatus = target
		return &p, nil
	case target:
		return &p, nil
	default:
		return nil, ErrApprovalFinal
	}
}
