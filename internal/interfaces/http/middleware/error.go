package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorHandlingOption options for error handling
type ErrorHandlingOption struct {
	Handler func(c echo.Context, err error)
	Logger  *zap.Logger
}

func plainErrorHandler(c echo.Context, err error) {
	if he, ok := err.(*echo.HTTPError); ok {
		c.String(he.Code, fmt.Sprintf("%v", he.Message))
		return
	}
	c.String(http.StatusInternalServerError, err.Error())
}

// ErrorHandling turns errors and panics from handlers into responses,
// downstream middlewares never see an error
func ErrorHandling(options ...*ErrorHandlingOption) echo.MiddlewareFunc {
	handler := plainErrorHandler
	logger := zap.NewNop()
	if len(options) > 0 {
		if options[0].Handler != nil {
			handler = options[0].Handler
		}
		if options[0].Logger != nil {
			logger = options[0].Logger
		}
	}
	respond := func(c echo.Context, err error) {
		if !c.Response().Committed {
			handler(c, err)
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if v := recover(); v != nil {
					err, ok := v.(error)
					if !ok {
						err = fmt.Errorf("%v", v)
					}
					logger.Error(err.Error(), append(requestFields(c), zap.Stack("error.stack_trace"))...)
					respond(c, err)
				}
			}()
			if err := next(c); err != nil {
				respond(c, err)
			}
			return nil
		}
	}
}
