package errors

import (
	"errors"
	"strings"
)

// Error kinds. Every error returned by the usecase layer matches at least one of them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("resource not found")
	ErrConflict   = errors.New("resource conflict")
	ErrDuplicate  = errors.New("resource already exists")
	ErrAuth       = errors.New("unauthorized")
)

// Error is a usecase error carrying a message and the kinds it belongs to
type Error struct {
	msg   string
	kinds []error
}

func newError(msg string, kinds ...error) *Error {
	return &Error{msg: msg, kinds: kinds}
}

func (e *Error) Error() string {
	return e.msg
}

// Unwrap exposes the kinds to errors.Is
func (e *Error) Unwrap() []error {
	return e.kinds
}

// ValidationError reports which input field was rejected
type ValidationError struct {
	Field  string
	Reason string
}

// Invalid returns a ValidationError for field
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid ")
	b.WriteString(e.Field)
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// Unwrap makes errors.Is(err, ErrValidation) hold
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Room errors
var (
	ErrRoomNotFound    = newError("room not found", ErrNotFound)
	ErrRoomInactive    = newError("room is not active", ErrNotFound)
	ErrRoomIDTaken     = newError("room id already in use", ErrDuplicate, ErrConflict)
	ErrRoomIDExhausted = errors.New("could not allocate a unique room id")
)

// Participant errors
var (
	ErrParticipantNotFound  = newError("participant not found", ErrNotFound)
	ErrParticipantNameTaken = newError("participant name already taken in this room", ErrDuplicate, ErrConflict)
	ErrApprovalAlreadySet   = newError("participant approval has already been decided", ErrConflict)

	// ErrInvalidToken is reported to clients exactly like a missing resource
	ErrInvalidToken = newError("participant not found", ErrAuth)
)

// Poll errors
var (
	ErrPollNotFound      = newError("poll not found", ErrNotFound)
	ErrPollNotCreated    = newError("poll has already been started or closed", ErrConflict)
	ErrPollNotActive     = newError("poll is not active", ErrConflict)
	ErrPollWrongRoom     = newError("poll not found in this room", ErrNotFound)
	ErrOptionNotInPoll   = &ValidationError{Field: "option_id", Reason: "option does not belong to this poll"}
	ErrAlreadyVoted      = newError("participant has already voted in this poll", ErrDuplicate, ErrConflict)
	ErrInvalidStopReason = &ValidationError{Field: "reason", Reason: "must be manual or timer_expired"}
)
