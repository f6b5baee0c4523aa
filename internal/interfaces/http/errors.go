package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/course-gateway/internal/course"
	"github.com/pot-code/course-gateway/internal/infrastructure/apiclient"
	"github.com/pot-code/course-gateway/internal/infrastructure/logging"
	"github.com/pot-code/course-gateway/internal/infrastructure/validate"
	"github.com/pot-code/course-gateway/internal/progression"
	"github.com/pot-code/course-gateway/internal/user"
	"go.uber.org/zap"
)

// RESTStandardError response error
type RESTStandardError struct {
	Type    string `json:"type,omitempty"`
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Detail  string `json:"detail,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

func NewRESTStandardError(code int, detail string) *RESTStandardError {
	return &RESTStandardError{
		Code:   code,
		Title:  http.StatusText(code),
		Detail: detail,
	}
}

func (re RESTStandardError) Error() string {
	return re.Detail
}

func (re RESTStandardError) SetTraceID(traceID string) RESTStandardError {
	re.TraceID = traceID
	return re
}

// RESTValidationError standard validation error
type RESTValidationError struct {
	RESTStandardError
	InvalidParams []*validate.FieldError `json:"invalid_params"`
}

func NewRESTValidationError(code int, detail string, internal []*validate.FieldError) *RESTValidationError {
	return &RESTValidationError{
		RESTStandardError: RESTStandardError{
			Code:   code,
			Title:  http.StatusText(code),
			Detail: detail,
		},
		InvalidParams: internal,
	}
}

func (rve RESTValidationError) Error() string {
	return rve.Detail
}

func (rve RESTValidationError) SetTraceID(traceID string) RESTValidationError {
	rve.RESTStandardError.TraceID = traceID
	return rve
}

// statusOf http status of errors surfacing from use cases
func statusOf(err error) int {
	var remote *apiclient.Error
	switch {
	case errors.Is(err, progression.ErrContentMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, progression.ErrSectionLocked):
		return http.StatusLocked
	case errors.Is(err, progression.ErrInvalidPosition):
		return http.StatusConflict
	case errors.Is(err, progression.ErrInvalidOption),
		errors.Is(err, user.ErrInvalidTheme),
		errors.Is(err, course.ErrInvalidCourseJSON):
		return http.StatusBadRequest
	case errors.Is(err, progression.ErrNotEnrolled):
		return http.StatusForbidden
	case errors.Is(err, progression.ErrNoSession),
		errors.Is(err, apiclient.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apiclient.ErrUnauthorized),
		errors.Is(err, user.ErrSessionExpired),
		errors.Is(err, user.ErrNoSuchUser):
		return http.StatusUnauthorized
	case errors.Is(err, apiclient.ErrConflict),
		errors.Is(err, user.ErrDuplicatedUser):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &remote):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// handleError used by the error handling middleware, every error returned by a handler ends here
func handleError(c echo.Context, err error) {
	traceID := c.Response().Header().Get(echo.HeaderXRequestID)
	logger := logging.ExtractLoggerFromContext(c.Request().Context())

	var he *echo.HTTPError
	if errors.As(err, &he) {
		c.JSON(he.Code, NewRESTStandardError(he.Code, fmt.Sprintf("%v", he.Message)).SetTraceID(traceID))
		return
	}
	var ve *course.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest,
			NewRESTValidationError(http.StatusBadRequest, "Failed to validate course", ve.Fields).SetTraceID(traceID))
		return
	}

	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		logger.Error(err.Error(), zap.String("trace.id", traceID), zap.Int("http.response.status_code", code))
	}
	c.JSON(code, NewRESTStandardError(code, err.Error()).SetTraceID(traceID))
}

// bindError reply to a malformed body
func bindError(c echo.Context, err error, entity string) error {
	detail := err.Error()
	if he, ok := err.(*echo.HTTPError); ok && he.Internal != nil {
		detail = he.Internal.Error()
	}
	return c.JSON(http.StatusUnprocessableEntity,
		NewRESTStandardError(http.StatusUnprocessableEntity, fmt.Sprintf("Failed to bind %s: %s", entity, detail)))
}
