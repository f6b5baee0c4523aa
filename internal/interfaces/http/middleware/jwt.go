package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/course-gateway/internal/infrastructure/apiclient"
	"github.com/pot-code/course-gateway/internal/infrastructure/auth"
	"github.com/pot-code/course-gateway/internal/user"
)

// ValidateTokenOption ...
type ValidateTokenOption struct {
	InBlackList func(ctx context.Context, token string) (bool, error)
	// LoadSession resolves the gateway session carried by the token
	LoadSession func(ctx context.Context, sessionID string) (*user.Session, error)
}

// RefreshTokenOption ...
type RefreshTokenOption struct {
	Threshold time.Duration
	// RefreshSession extends the gateway session behind the token
	RefreshSession func(ctx context.Context, sessionID string) error
}

// VerifyToken validate JWT and bind the session of the caller to the request context
func VerifyToken(ju *auth.JWTUtil, options ...*ValidateTokenOption) echo.MiddlewareFunc {
	inBlacklist := func(context.Context, string) (bool, error) { return true, nil }
	var loadSession func(context.Context, string) (*user.Session, error)
	if len(options) > 0 {
		option := options[0]
		if option.InBlackList != nil {
			inBlacklist = option.InBlackList
		}
		loadSession = option.LoadSession
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, err := ju.ExtractToken(c)
			if err != nil {
				return c.NoContent(http.StatusUnauthorized)
			}

			r := c.Request()
			ctx := r.Context()
			if ok, err := inBlacklist(ctx, tokenStr); err != nil {
				return err
			} else if ok {
				return c.NoContent(http.StatusUnauthorized)
			}

			token, err := ju.Validate(tokenStr)
			if err != nil {
				return c.NoContent(http.StatusUnauthorized)
			}
			if loadSession != nil {
				session, err := loadSession(ctx, token.SessionID)
				if errors.Is(err, user.ErrSessionExpired) {
					ju.ClearClientToken(c)
					return c.NoContent(http.StatusUnauthorized)
				} else if err != nil {
					return err
				}
				ctx = apiclient.WithToken(user.WithSessionID(ctx, session.ID), session.RemoteToken)
				c.SetRequest(r.WithContext(ctx))
			}
			ju.SetContextToken(c, token)
			return next(c)
		}
	}
}

// RefreshToken refresh jwt if necessary, must be chained after VerifyToken
func RefreshToken(ju *auth.JWTUtil, options ...*RefreshTokenOption) echo.MiddlewareFunc {
	threshold := 5 * time.Minute
	var refreshSession func(context.Context, string) error
	if len(options) > 0 {
		option := options[0]
		if option.Threshold > 0 {
			threshold = option.Threshold
		}
		refreshSession = option.RefreshSession
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ju.GetContextToken(c)
			if claims == nil || claims.TimeRemaining() >= threshold {
				return next(c)
			}
			if refreshSession != nil {
				err := refreshSession(c.Request().Context(), claims.SessionID)
				if errors.Is(err, user.ErrSessionExpired) {
					ju.ClearClientToken(c)
					return c.NoContent(http.StatusUnauthorized)
				} else if err != nil {
					return err
				}
			}
			tokenStr, err := ju.Sign(ju.RefreshToken(claims))
			if err != nil {
				return err
			}
			ju.SetClientToken(c, tokenStr)
			return next(c)
		}
	}
}

// RequireAdmin must be chained after VerifyToken
func RequireAdmin(ju *auth.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ju.GetContextToken(c)
			if claims == nil {
				return c.NoContent(http.StatusUnauthorized)
			}
			if !claims.IsAdmin() {
				return c.NoContent(http.StatusForbidden)
			}
			return next(c)
		}
	}
}
