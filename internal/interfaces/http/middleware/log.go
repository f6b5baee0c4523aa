package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pot-code/course-gateway/internal/infrastructure/apiclient"
	"github.com/pot-code/course-gateway/internal/infrastructure/logging"
	"go.uber.org/zap"
)

type LoggingConfig struct {
	// Skipper defines a function to skip middleware.
	Skipper middleware.Skipper
}

// requestFields ECS fields describing the current request
func requestFields(c echo.Context) []zap.Field {
	r := c.Request()
	fields := []zap.Field{
		zap.String("trace.id", c.Response().Header().Get(echo.HeaderXRequestID)),
		zap.String("url.path", r.RequestURI),
		zap.String("client.address", r.RemoteAddr),
		zap.String("http.request.method", r.Method),
		zap.Int64("http.request.body.bytes", r.ContentLength),
	}
	if len(c.ParamNames()) > 0 {
		fields = append(fields,
			zap.Strings("route.params.name", c.ParamNames()),
			zap.Strings("route.params.value", c.ParamValues()),
		)
	}
	return fields
}

// Logging writes one access line per request
func Logging(base *zap.Logger, options ...*LoggingConfig) echo.MiddlewareFunc {
	skipper := middleware.DefaultSkipper
	if len(options) > 0 && options[0].Skipper != nil {
		skipper = options[0].Skipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}
			err := next(c)
			code := c.Response().Status
			base.Info(http.StatusText(code),
				append(requestFields(c), zap.Int("http.response.status_code", code))...)
			return err
		}
	}
}

// SetTraceLogger set logger binding with trace ID into context, the trace ID is
// forwarded to the course platform as well
func SetTraceLogger(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.SetLoggerInContext(r.Context(), base.With(zap.String("trace.id", rid)))
			if rid != "" {
				ctx = apiclient.WithRequestID(ctx, rid)
			}
			c.SetRequest(r.WithContext(ctx))
			return next(c)
		}
	}
}
