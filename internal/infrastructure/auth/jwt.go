package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
)

// ErrNoToken request carries no gateway token
var ErrNoToken = errors.New("no token in request")

// AppTokenClaims .
type AppTokenClaims struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	SessionID string `json:"sid"` // key of the remote token and cached profile in the kv store

	jwt.StandardClaims
}

// TimeRemaining remaining time before the token get expired
func (tk *AppTokenClaims) TimeRemaining() time.Duration {
	exp := time.Unix(tk.ExpiresAt, 0)
	now := time.Now()

	if exp.Before(now) {
		return 0
	}
	return exp.Sub(now)
}

// IsAdmin whether the token belongs to a platform administrator, roles may carry a ROLE_ prefix
func (tk *AppTokenClaims) IsAdmin() bool {
	return strings.EqualFold(strings.TrimPrefix(tk.Role, "ROLE_"), "ADMIN")
}

// JWTUtil .
type JWTUtil struct {
	secret    []byte
	tokenName string
	timeout   time.Duration
	method    jwt.SigningMethod
}

var signingMethods = map[string]jwt.SigningMethod{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

// NewJWTUtil create a JWTUtil instance, unknown methods fall back to HS256
func NewJWTUtil(method, secret, tokenName string, timeout time.Duration) *JWTUtil {
	signMethod, ok := signingMethods[method]
	if !ok {
		signMethod = jwt.SigningMethodHS256
	}
	return &JWTUtil{
		method:    signMethod,
		secret:    []byte(secret),
		tokenName: tokenName,
		timeout:   timeout,
	}
}

// Sign sign token
func (ju *JWTUtil) Sign(claims *AppTokenClaims) (string, error) {
	token := jwt.NewWithClaims(ju.method, claims)
	return token.SignedString(ju.secret)
}

// Validate validate token string with secret and return AppTokenClaims
func (ju *JWTUtil) Validate(tokenStr string) (*AppTokenClaims, error) {
	claims := new(AppTokenClaims)
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != ju.method.Alg() {
			return nil, errors.New("unexpected signing method " + token.Method.Alg())
		}
		return ju.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// IssueToken sign a fresh token for a signed in user
func (ju *JWTUtil) IssueToken(uid, email, name, role, sessionID string) (string, error) {
	return ju.Sign(&AppTokenClaims{
		UID:       uid,
		Email:     email,
		Name:      name,
		Role:      role,
		SessionID: sessionID,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(ju.timeout).Unix(),
		},
	})
}

// RefreshToken push token expiration forward by the configured timeout
func (ju *JWTUtil) RefreshToken(claims *AppTokenClaims) *AppTokenClaims {
	claims.ExpiresAt = time.Now().Add(ju.timeout).Unix()
	return claims
}

func (ju *JWTUtil) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     ju.tokenName,
		Value:    value,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	}
}

// SetClientToken set token in client cookie
func (ju *JWTUtil) SetClientToken(c echo.Context, tokenStr string) {
	c.SetCookie(ju.cookie(tokenStr, time.Now().Add(ju.timeout)))
}

// ClearClientToken expire the client cookie
func (ju *JWTUtil) ClearClientToken(c echo.Context) {
	c.SetCookie(ju.cookie("", time.Unix(0, 0)))
}

// SetContextToken set token in App context
func (ju *JWTUtil) SetContextToken(c echo.Context, token *AppTokenClaims) {
	c.Set(ju.tokenName, token)
}

// GetContextToken get token from App context
func (ju *JWTUtil) GetContextToken(c echo.Context) *AppTokenClaims {
	v, ok := c.Get(ju.tokenName).(*AppTokenClaims)
	if ok {
		return v
	}
	return nil
}

// ExtractToken get token string from request, the cookie wins over the Authorization header
func (ju *JWTUtil) ExtractToken(c echo.Context) (string, error) {
	if token, err := c.Cookie(ju.tokenName); err == nil && token.Value != "" {
		return token.Value, nil
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer "), nil
	}
	return "", ErrNoToken
}
