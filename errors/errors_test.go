package errors

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCode_Text(t *testing.T) {
	assert.Equal(t, "ROOM_NOT_FOUND", ErrorCode_ROOM_NOT_FOUND.String())
	assert.Equal(t, "UNKNOWN", ErrorCode(42).String())

	raw, err := json.Marshal(map[string]ErrorCode{"code": ErrorCode_VOTE_ALREADY_CAST})
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"VOTE_ALREADY_CAST"}`, string(raw))
}

func TestAppError_WithDetail(t *testing.T) {
	base := ErrInvalidArgument("bad input")
	withField := base.WithDetail("field", "options").WithDetail("reason", "")

	assert.Nil(t, base.Details, "original must not be mutated")
	assert.Equal(t, map[string]string{"field": "options"}, withField.Details)

	v := ErrValidation("timer_minutes", "max")
	assert.Equal(t, http.StatusBadRequest, v.HTTPCode)
	assert.Equal(t, ErrorCode_INVALID_ARGUMENT, v.Code)
	assert.Equal(t, "timer_minutes", v.Details["field"])
	assert.Equal(t, "max", v.Details["reason"])
}

func TestAppError_Unwrap(t *testing.T) {
	err := ErrInternal(io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "[INTERNAL]")

	var app AppError
	require.True(t, stderrors.As(error(ErrAlreadyVoted()), &app))
	assert.Equal(t, http.StatusConflict, app.HTTPCode)
	assert.Equal(t, ErrorCode_VOTE_ALREADY_CAST, app.Code)
}
