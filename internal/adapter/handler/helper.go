package handler

import (
	stdErrors "errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/KiiTuNp/SUPERvote/errors"
	"github.com/KiiTuNp/SUPERvote/internal/infrastructure/broadcast"
	usecaseErrors "github.com/KiiTuNp/SUPERvote/internal/usecase/errors"
	"github.com/KiiTuNp/SUPERvote/pkg/jwt"
	"github.com/KiiTuNp/SUPERvote/pkg/validator"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code      interface{}       `json:"code,omitempty"`
	Message   string            `json:"message,omitempty"`
	Info      string            `json:"info,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// getRequestID reads the correlation id set by the RequestID middleware
func getRequestID(c echo.Context) string {
	if c == nil {
		return ""
	}
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	if c.Request() == nil {
		return ""
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusOK, data)
}

// HandleCreated writes a standardized 201 response
func HandleCreated(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusCreated, data)
}

func respond(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Debug("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)
	appErr := ToAppError(err)

	if logger != nil {
		level := zap.WarnLevel
		if appErr.HTTPCode >= http.StatusInternalServerError {
			level = zap.ErrorLevel
		}
		logger.Log(level, "http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Stringer("app_code", appErr.Code),
			zap.Int("status", appErr.HTTPCode),
			zap.Error(err),
		)
	}

	body := errs{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Details:   appErr.Details,
		Timestamp: appErr.Timestamp,
	}
	// raw causes of server faults stay in the log
	if appErr.Raw != nil && appErr.HTTPCode < http.StatusInternalServerError {
		body.Info = appErr.Raw.Error()
	}

	return c.JSON(appErr.HTTPCode, body)
}

// ToAppError maps usecase, token and hub errors onto the API error shape.
// Auth failures share the not-found body so valid tokens cannot be enumerated.
func ToAppError(err error) errors.AppError {
	appErr := toAppError(err)
	if appErr.Timestamp.IsZero() {
		appErr.Timestamp = time.Now().UTC()
	}
	return appErr
}

func toAppError(err error) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stdErrors.Is(err, usecaseErrors.ErrRoomNotFound), stdErrors.Is(err, usecaseErrors.ErrRoomInactive):
		return errors.ErrRoomNotFound("")
	case stdErrors.Is(err, usecaseErrors.ErrRoomIDTaken):
		return errors.ErrRoomAlreadyExists("")
	case stdErrors.Is(err, usecaseErrors.ErrRoomIDExhausted):
		return errors.ErrRoomCreationFailed(err)
	case stdErrors.Is(err, usecaseErrors.ErrParticipantNameTaken):
		return errors.ErrParticipantNameTaken("")
	case stdErrors.Is(err, usecaseErrors.ErrApprovalAlreadySet):
		return errors.ErrApprovalAlreadySet()
	case stdErrors.Is(err, usecaseErrors.ErrParticipantNotFound), stdErrors.Is(err, usecaseErrors.ErrAuth):
		return errors.ErrParticipantNotFound()
	case stdErrors.Is(err, usecaseErrors.ErrPollNotFound), stdErrors.Is(err, usecaseErrors.ErrPollWrongRoom):
		return errors.ErrPollNotFound("")
	case stdErrors.Is(err, usecaseErrors.ErrPollNotCreated):
		return errors.ErrPollInvalidState("Poll has already been started or closed")
	case stdErrors.Is(err, usecaseErrors.ErrPollNotActive):
		return errors.ErrPollInvalidState("Poll is not active")
	case stdErrors.Is(err, usecaseErrors.ErrAlreadyVoted):
		return errors.ErrAlreadyVoted()
	case stdErrors.Is(err, broadcast.ErrConnectionLimit):
		return errors.ErrConnectionLimit("")
	case stdErrors.Is(err, jwt.ErrInvalidToken):
		return errors.ErrInvalidToken()
	}

	var ferr *validator.FieldError
	if stdErrors.As(err, &ferr) {
		return errors.ErrValidation(ferr.Field, ferr.Rule)
	}

	var verr *usecaseErrors.ValidationError
	if stdErrors.As(err, &verr) {
		if verr == usecaseErrors.ErrOptionNotInPoll {
			return errors.ErrOptionNotInPoll("")
		}
		return errors.ErrValidation(verr.Field, verr.Reason)
	}

	switch {
	case stdErrors.Is(err, usecaseErrors.ErrValidation):
		return errors.ErrInvalidArgument(err.Error())
	case stdErrors.Is(err, usecaseErrors.ErrNotFound):
		return errors.ErrNotFound("Resource")
	case stdErrors.Is(err, usecaseErrors.ErrDuplicate):
		return errors.ErrAlreadyExists("Resource")
	case stdErrors.Is(err, usecaseErrors.ErrConflict):
		return errors.AppError{HTTPCode: http.StatusConflict, Code: errors.ErrorCode_ALREADY_EXISTS, Message: err.Error()}
	}

	var httpErr *echo.HTTPError
	if stdErrors.As(err, &httpErr) {
		switch httpErr.Code {
		case http.StatusTooManyRequests:
			return errors.ErrTooManyRequests()
		case http.StatusNotFound:
			return errors.ErrNotFound("Route")
		case http.StatusUnauthorized:
			return errors.ErrUnauthenticated()
		}
		if httpErr.Code < http.StatusInternalServerError {
			return errors.AppError{HTTPCode: httpErr.Code, Code: errors.ErrorCode_INVALID_ARGUMENT, Message: http.StatusText(httpErr.Code)}
		}
	}

	return errors.ErrInternal(err)
}

// ErrorHandler adapts HandleError to echo's HTTPErrorHandler so router level
// failures share the response shape.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if herr := HandleError(logger, c, err); herr != nil && logger != nil {
			logger.Error("http.response.write_failed", zap.Error(herr))
		}
	}
}
