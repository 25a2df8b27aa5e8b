package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError is the error shape written to API clients
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the raw cause
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error. Empty values are skipped.
func (e AppError) WithDetail(key, value string) AppError {
	if value == "" {
		return e
	}
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrAlreadyExists(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_ALREADY_EXISTS,
		Message:  fmt.Sprintf("%s already exists", resource),
	}
}

func ErrPermissionDenied(action string) AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_PERMISSION_DENIED,
		Message:  fmt.Sprintf("Permission denied: %s", action),
	}
}

func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_UNAUTHENTICATED,
		Message:  "Authentication required",
	}
}

func ErrInvalidPayload(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

func ErrTooManyRequests() AppError {
	return AppError{
		HTTPCode: http.StatusTooManyRequests,
		Code:     ErrorCode_TOO_MANY_REQUESTS,
		Message:  "Too many requests",
	}
}

func ErrServiceUnavailable(component string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_SERVICE_UNAVAILABLE,
		Message:  "Service unavailable",
	}.WithDetail("component", component)
}

// Authentication Errors
func ErrInvalidToken() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_AUTH_INVALID_TOKEN,
		Message:  "Invalid authentication token",
	}
}

func ErrTokenExpired() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_AUTH_TOKEN_EXPIRED,
		Message:  "Authentication token has expired",
	}
}

// Room Errors
func ErrRoomNotFound(roomID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_ROOM_NOT_FOUND,
		Message:  "Room not found",
	}.WithDetail("room_id", roomID)
}

func ErrRoomAlreadyExists(roomID string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_ROOM_ALREADY_EXISTS,
		Message:  "Room ID already in use",
	}.WithDetail("room_id", roomID)
}

func ErrRoomAccessDenied(roomID string) AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_ROOM_ACCESS_DENIED,
		Message:  "Organizer token does not grant access to this room",
	}.WithDetail("room_id", roomID)
}

func ErrRoomCreationFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_ROOM_CREATION_FAILED,
		Message:  "Failed to create room",
	}
}

// Participant Errors
func ErrParticipantNotFound() AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_PARTICIPANT_NOT_FOUND,
		Message:  "Participant not found",
	}
}

func ErrParticipantNameTaken(name string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_PARTICIPANT_NAME_TAKEN,
		Message:  "Name already taken in this room",
	}.WithDetail("name", name)
}

func ErrApprovalAlreadySet() AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_PARTICIPANT_ALREADY_DECIDED,
		Message:  "Participant approval has already been decided",
	}
}

// Poll Errors
func ErrPollNotFound(pollID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_POLL_NOT_FOUND,
		Message:  "Poll not found",
	}.WithDetail("poll_id", pollID)
}

func ErrPollInvalidState(message string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_POLL_INVALID_STATE,
		Message:  message,
	}
}

func ErrOptionNotInPoll(optionID string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_VOTE_INVALID_OPTION,
		Message:  "Option does not belong to this poll",
	}.WithDetail("option_id", optionID)
}

func ErrAlreadyVoted() AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_VOTE_ALREADY_CAST,
		Message:  "Participant has already voted in this poll",
	}
}

// Validation Errors
func ErrValidation(field, reason string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  fmt.Sprintf("Invalid %s", field),
	}.WithDetail("field", field).WithDetail("reason", reason)
}

// Realtime Errors
func ErrConnectionLimit(addr string) AppError {
	return AppError{
		HTTPCode: http.StatusTooManyRequests,
		Code:     ErrorCode_CONNECTION_LIMIT,
		Message:  "Too many live connections from this address",
	}.WithDetail("addr", addr)
}
