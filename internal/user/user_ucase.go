package user

import (
	"context"
	"time"

	"github.com/pot-code/course-gateway/internal/course"
	"github.com/pot-code/course-gateway/internal/infrastructure/apiclient"
	"github.com/pot-code/course-gateway/internal/infrastructure/logging"
	"github.com/pot-code/course-gateway/internal/infrastructure/uuid"
	"go.elastic.co/apm"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UserUseCaseImpl ...
type UserUseCaseImpl struct {
	UserRepository   UserRepository
	CourseRepository course.CourseRepository
	SessionStore     SessionStore
	Sessions         SessionCloser
	IDGenerator      uuid.Generator
	SessionTTL       time.Duration
}

var _ UserUseCase = &UserUseCaseImpl{}

// NewUserUseCase ...
func NewUserUseCase(
	UserRepository UserRepository,
	CourseRepository course.CourseRepository,
	SessionStore SessionStore,
	Sessions SessionCloser,
	IDGenerator uuid.Generator,
	SessionTTL time.Duration,
) *UserUseCaseImpl {
	return &UserUseCaseImpl{
		UserRepository:   UserRepository,
		CourseRepository: CourseRepository,
		SessionStore:     SessionStore,
		Sessions:         Sessions,
		IDGenerator:      IDGenerator,
		SessionTTL:       SessionTTL,
	}
}

// SignUp create a user on the platform
func (uu *UserUseCaseImpl) SignUp(ctx context.Context, form *SignUpForm) (*UserModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.SignUp", "service")
	defer apmSpan.End()

	return uu.UserRepository.Register(ctx, form)
}

// SignIn log in on the platform and open a gateway session holding the remote token
func (uu *UserUseCaseImpl) SignIn(ctx context.Context, form *SignInForm) (*Session, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.SignIn", "service")
	defer apmSpan.End()

	result, err := uu.UserRepository.Login(ctx, form)
	if err != nil {
		return nil, err
	}
	sid, err := uu.IDGenerator.Generate()
	if err != nil {
		return nil, err
	}
	session := &Session{
		ID:          sid,
		User:        result.UserModel,
		RemoteToken: result.Token,
	}
	if err := uu.SessionStore.SaveSession(ctx, session, uu.SessionTTL); err != nil {
		return nil, err
	}
	logging.ExtractLoggerFromContext(ctx).Info("user signed in",
		zap.String("user.id", session.User.ID), zap.String("session.id", sid))
	return session, nil
}

// SignOut drop the session, blacklist the gateway token and discard open learning sessions
func (uu *UserUseCaseImpl) SignOut(ctx context.Context, sessionID, userID, token string, remaining time.Duration) error {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.SignOut", "service")
	defer apmSpan.End()

	if err := uu.SessionStore.Blacklist(ctx, token, remaining); err != nil {
		return err
	}
	if err := uu.SessionStore.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	if uu.Sessions != nil {
		uu.Sessions.CloseUser(userID)
	}
	return nil
}

// Session load a live session
func (uu *UserUseCaseImpl) Session(ctx context.Context, sessionID string) (*Session, error) {
	return uu.SessionStore.LoadSession(ctx, sessionID)
}

// RefreshSession give a live session another full ttl, called together with the jwt refresh
func (uu *UserUseCaseImpl) RefreshSession(ctx context.Context, sessionID string) error {
	return uu.SessionStore.TouchSession(ctx, sessionID, uu.SessionTTL)
}

// Validate check the remote token of the session is still accepted, the session is dropped otherwise
func (uu *UserUseCaseImpl) Validate(ctx context.Context, sessionID string) (*UserModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.Validate", "service")
	defer apmSpan.End()

	session, err := uu.SessionStore.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ok, err := uu.UserRepository.Validate(WithSessionID(ctx, sessionID), session.RemoteToken)
	if err != nil {
		return nil, err
	}
	if !ok {
		uu.SessionStore.DeleteSession(ctx, sessionID)
		return nil, ErrSessionExpired
	}
	return &session.User, nil
}

// DropRemoteToken forget the remote token of the session in ctx, used when the platform answers 401
func (uu *UserUseCaseImpl) DropRemoteToken(ctx context.Context) {
	sid := SessionIDFromContext(ctx)
	if sid == "" {
		return
	}
	logger := logging.ExtractLoggerFromContext(ctx)
	if err := uu.SessionStore.DeleteSession(context.Background(), sid); err != nil {
		logger.Warn("failed to drop session", zap.String("session.id", sid), zap.Error(err))
		return
	}
	logger.Info("remote token rejected, session dropped", zap.String("session.id", sid))
}

// IsBlacklisted .
func (uu *UserUseCaseImpl) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return uu.SessionStore.IsBlacklisted(ctx, token)
}

// Dashboard profile, catalog, enrollments, likes and theme fetched concurrently
func (uu *UserUseCaseImpl) Dashboard(ctx context.Context, sessionID string) (*Dashboard, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "UserUseCaseImpl.Dashboard", "service")
	defer apmSpan.End()

	session, err := uu.SessionStore.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ctx = apiclient.WithToken(WithSessionID(ctx, sessionID), session.RemoteToken)

	d := &Dashboard{Profile: &session.User}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Courses, err = uu.CourseRepository.CatalogCourses(gctx)
		return
	})
	g.Go(func() (err error) {
		d.Enrolled, err = uu.CourseRepository.EnrolledCourses(gctx)
		return
	})
	g.Go(func() (err error) {
		d.Liked, err = uu.CourseRepository.LikedCourseIDs(gctx)
		return
	})
	g.Go(func() (err error) {
		d.Theme, err = uu.SessionStore.GetTheme(gctx, session.User.ID)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// GetTheme .
func (uu *UserUseCaseImpl) GetTheme(ctx context.Context, userID string) (Theme, error) {
	return uu.SessionStore.GetTheme(ctx, userID)
}

// SetTheme .
func (uu *UserUseCaseImpl) SetTheme(ctx context.Context, userID string, theme Theme) error {
	if !theme.Valid() {
		return ErrInvalidTheme
	}
	return uu.SessionStore.SetTheme(ctx, userID, theme)
}

// ListUsers .
func (uu *UserUseCaseImpl) ListUsers(ctx context.Context) ([]*AdminUser, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.ListUsers", "service")
	defer apmSpan.End()

	return uu.UserRepository.ListUsers(ctx)
}

// GetUser .
func (uu *UserUseCaseImpl) GetUser(ctx context.Context, userID string) (*AdminUser, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.GetUser", "service")
	defer apmSpan.End()

	return uu.UserRepository.GetUser(ctx, userID)
}

// DeleteUser delete a user on the platform and discard their learning sessions
func (uu *UserUseCaseImpl) DeleteUser(ctx context.Context, userID string) error {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.DeleteUser", "service")
	defer apmSpan.End()

	if err := uu.UserRepository.DeleteUser(ctx, userID); err != nil {
		return err
	}
	if uu.Sessions != nil {
		uu.Sessions.CloseUser(userID)
	}
	return nil
}
