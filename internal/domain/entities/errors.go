package entities

import "errors"

// Domain errors
var (
	// Room errors
	ErrInvalidRoomID = errors.New("room id must be 3-10 alphanumeric characters")

	// Name errors
	ErrEmptyName   = errors.New("name cannot be empty")
	ErrNameTooLong = errors.New("name is too long")

	// Participant errors
	ErrApprovalFinal = errors.New("participant approval has already been decided")

	// Poll errors
	ErrEmptyQuestion     = errors.New("question cannot be empty")
	ErrQuestionTooLong   = errors.New("question is too long")
	ErrOptionCount       = errors.New("poll must have between 2 and 20 options")
	ErrEmptyOption       = errors.New("option cannot be empty")
	ErrOptionTooLong     = errors.New("option is too long")
	ErrDuplicateOption   = errors.New("options must be unique")
	ErrInvalidTimer      = errors.New("timer must be between 1 and 120 minutes")
	ErrInvalidTransition = errors.New("invalid poll status transition")
)
