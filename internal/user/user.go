package user

import (
	"context"
	"errors"
	"time"

	"github.com/pot-code/course-gateway/internal/course"
)

var (
	// ErrNoSuchUser failed to validate the credential
	ErrNoSuchUser = errors.New("Invalid email or password")
	// ErrDuplicatedUser unique key constraint violation
	ErrDuplicatedUser = errors.New("Email already registered")
	// ErrSessionExpired gateway session or remote token is gone
	ErrSessionExpired = errors.New("Session expired, please sign in again")
	// ErrInvalidTheme .
	ErrInvalidTheme = errors.New("Theme must be light or dark")
)

// Theme UI color scheme preference
type Theme string

// themes
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid .
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// UserModel profile cached after sign in
type UserModel struct {
	ID        string `json:"userId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// SignUpForm .
type SignUpForm struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// SignInForm .
type SignInForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult remote login response
type AuthResult struct {
	Token string `json:"token"`
	UserModel
}

// AdminUser user row of the admin console
type AdminUser struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	EnrolledCourses  int    `json:"enrolledCourses"`
	CompletedCourses int    `json:"completedCourses"`
}

// Session gateway session, keyed by a generated id
type Session struct {
	ID          string    `json:"id"`
	User        UserModel `json:"user"`
	RemoteToken string    `json:"remote_token"`
}

// Dashboard learner home screen
type Dashboard struct {
	Profile  *UserModel       `json:"profile"`
	Courses  []*course.Course `json:"courses"`
	Enrolled []*course.Course `json:"enrolled"`
	Liked    []string         `json:"liked"`
	Theme    Theme            `json:"theme"`
}

// UserRepository identity operations of the course platform
type UserRepository interface {
	Register(ctx context.Context, form *SignUpForm) (*UserModel, error)
	Login(ctx context.Context, form *SignInForm) (*AuthResult, error)
	Validate(ctx context.Context, remoteToken string) (bool, error)
	ListUsers(ctx context.Context) ([]*AdminUser, error)
	GetUser(ctx context.Context, userID string) (*AdminUser, error)
	DeleteUser(ctx context.Context, userID string) error
}

// SessionStore gateway local state
type SessionStore interface {
	SaveSession(ctx context.Context, s *Session, ttl time.Duration) error
	LoadSession(ctx context.Context, sessionID string) (*Session, error)
	TouchSession(ctx context.Context, sessionID string, ttl time.Duration) error
	DeleteSession(ctx context.Context, sessionID string) error
	Blacklist(ctx context.Context, token string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	GetTheme(ctx context.Context, userID string) (Theme, error)
	SetTheme(ctx context.Context, userID string, theme Theme) error
}

// SessionCloser drops in-memory learning sessions of a user
type SessionCloser interface {
	CloseUser(userID string)
}

// UserUseCase .
type UserUseCase interface {
	SignUp(ctx context.Context, form *SignUpForm) (*UserModel, error)
	SignIn(ctx context.Context, form *SignInForm) (*Session, error)
	SignOut(ctx context.Context, sessionID, userID, token string, remaining time.Duration) error
	Session(ctx context.Context, sessionID string) (*Session, error)
	RefreshSession(ctx context.Context, sessionID string) error
	Validate(ctx context.Context, sessionID string) (*UserModel, error)
	DropRemoteToken(ctx context.Context)
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	Dashboard(ctx context.Context, sessionID string) (*Dashboard, error)
	GetTheme(ctx context.Context, userID string) (Theme, error)
	SetTheme(ctx context.Context, userID string, theme Theme) error

	ListUsers(ctx context.Context) ([]*AdminUser, error)
	GetUser(ctx context.Context, userID string) (*AdminUser, error)
	DeleteUser(ctx context.Context, userID string) error
}

type ctxKey string

const sessionIDKey ctxKey = "session_id"

// WithSessionID .
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionIDFromContext .
func SessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(sessionIDKey).(string)
	return sid
}
