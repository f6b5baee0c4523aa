package middleware

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// AbortRequestOption ...
type AbortRequestOption struct {
	Timeout time.Duration
	// Skipper long lived requests such as websocket streams
	Skipper middleware.Skipper
}

// AbortRequest cancel the request context once Timeout is exceeded, remote calls
// and db queries made with it give up as well
func AbortRequest(option *AbortRequestOption) echo.MiddlewareFunc {
	skipper := option.Skipper
	if skipper == nil {
		skipper = middleware.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if option.Timeout <= 0 || skipper(c) {
				return next(c)
			}
			r := c.Request()
			ctx, cancel := context.WithTimeout(r.Context(), option.Timeout)
			defer cancel()
			c.SetRequest(r.WithContext(ctx))
			return next(c)
		}
	}
}
