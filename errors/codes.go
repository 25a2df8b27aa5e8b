package errors

// ErrorCode identifies an error class in API responses
type ErrorCode int32

const (
	ErrorCode_HTTP_OK ErrorCode = 200

	// General
	ErrorCode_INTERNAL            ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT    ErrorCode = 1001
	ErrorCode_NOT_FOUND           ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS      ErrorCode = 1003
	ErrorCode_PERMISSION_DENIED   ErrorCode = 1004
	ErrorCode_UNAUTHENTICATED     ErrorCode = 1005
	ErrorCode_INVALID_PAYLOAD     ErrorCode = 1006
	ErrorCode_TOO_MANY_REQUESTS   ErrorCode = 1007
	ErrorCode_SERVICE_UNAVAILABLE ErrorCode = 1008

	// Authentication
	ErrorCode_AUTH_INVALID_TOKEN ErrorCode = 2000
	ErrorCode_AUTH_TOKEN_EXPIRED ErrorCode = 2001

	// Rooms
	ErrorCode_ROOM_NOT_FOUND       ErrorCode = 3000
	ErrorCode_ROOM_ALREADY_EXISTS  ErrorCode = 3001
	ErrorCode_ROOM_ACCESS_DENIED   ErrorCode = 3002
	ErrorCode_ROOM_CREATION_FAILED ErrorCode = 3003

	// Participants
	ErrorCode_PARTICIPANT_NOT_FOUND       ErrorCode = 4000
	ErrorCode_PARTICIPANT_NAME_TAKEN      ErrorCode = 4001
	ErrorCode_PARTICIPANT_ALREADY_DECIDED ErrorCode = 4002

	// Polls and votes
	ErrorCode_POLL_NOT_FOUND      ErrorCode = 5000
	ErrorCode_POLL_INVALID_STATE  ErrorCode = 5001
	ErrorCode_VOTE_INVALID_OPTION ErrorCode = 5002
	ErrorCode_VOTE_ALREADY_CAST   ErrorCode = 5003

	// Realtime
	ErrorCode_CONNECTION_LIMIT ErrorCode = 6000
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                     "HTTP_OK",
	ErrorCode_INTERNAL:                    "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:            "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                   "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:              "ALREADY_EXISTS",
	ErrorCode_PERMISSION_DENIED:           "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:             "UNAUTHENTICATED",
	ErrorCode_INVALID_PAYLOAD:             "INVALID_PAYLOAD",
	ErrorCode_TOO_MANY_REQUESTS:           "TOO_MANY_REQUESTS",
	ErrorCode_SERVICE_UNAVAILABLE:         "SERVICE_UNAVAILABLE",
	ErrorCode_AUTH_INVALID_TOKEN:          "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:          "AUTH_TOKEN_EXPIRED",
	ErrorCode_ROOM_NOT_FOUND:              "ROOM_NOT_FOUND",
	ErrorCode_ROOM_ALREADY_EXISTS:         "ROOM_ALREADY_EXISTS",
	ErrorCode_ROOM_ACCESS_DENIED:          "ROOM_ACCESS_DENIED",
	ErrorCode_ROOM_CREATION_FAILED:        "ROOM_CREATION_FAILED",
	ErrorCode_PARTICIPANT_NOT_FOUND:       "PARTICIPANT_NOT_FOUND",
	ErrorCode_PARTICIPANT_NAME_TAKEN:      "PARTICIPANT_NAME_TAKEN",
	ErrorCode_PARTICIPANT_ALREADY_DECIDED: "PARTICIPANT_ALREADY_DECIDED",
	ErrorCode_POLL_NOT_FOUND:              "POLL_NOT_FOUND",
	ErrorCode_POLL_INVALID_STATE:          "POLL_INVALID_STATE",
	ErrorCode_VOTE_INVALID_OPTION:         "VOTE_INVALID_OPTION",
	ErrorCode_VOTE_ALREADY_CAST:           "VOTE_ALREADY_CAST",
	ErrorCode_CONNECTION_LIMIT:            "CONNECTION_LIMIT",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText renders the code by name in JSON bodies
func (c ErrorCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
