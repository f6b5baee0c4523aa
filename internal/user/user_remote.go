package user

import (
	"context"
	"errors"
	"net/url"

	"github.com/pot-code/course-gateway/internal/infrastructure/apiclient"
)

// UserRemote UserRepository backed by the course platform API
type UserRemote struct {
	Client *apiclient.Client
}

var _ UserRepository = &UserRemote{}

// NewUserRemote .
func NewUserRemote(client *apiclient.Client) *UserRemote {
	return &UserRemote{Client: client}
}

// Register .
func (ur *UserRemote) Register(ctx context.Context, form *SignUpForm) (*UserModel, error) {
	out := new(UserModel)
	if err := ur.Client.Post(ctx, "/auth/register", form, out); err != nil {
		if errors.Is(err, apiclient.ErrConflict) {
			return nil, ErrDuplicatedUser
		}
		return nil, err
	}
	return out, nil
}

// Login .
func (ur *UserRemote) Login(ctx context.Context, form *SignInForm) (*AuthResult, error) {
	out := new(AuthResult)
	if err := ur.Client.Post(apiclient.WithToken(ctx, ""), "/auth/login", form, out); err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return nil, ErrNoSuchUser
		}
		return nil, err
	}
	if out.Token == "" {
		return nil, ErrNoSuchUser
	}
	return out, nil
}

// Validate ask the platform whether remoteToken is still accepted
func (ur *UserRemote) Validate(ctx context.Context, remoteToken string) (bool, error) {
	var out struct {
		Valid bool `json:"valid"`
	}
	err := ur.Client.Post(apiclient.WithToken(ctx, remoteToken), "/auth/validate", nil, &out)
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return false, nil
	}
	return out.Valid, err
}

// ListUsers .
func (ur *UserRemote) ListUsers(ctx context.Context) ([]*AdminUser, error) {
	var out []*AdminUser
	err := ur.Client.Get(ctx, "/admin/users", &out)
	return out, err
}

// GetUser .
func (ur *UserRemote) GetUser(ctx context.Context, userID string) (*AdminUser, error) {
	out := new(AdminUser)
	if err := ur.Client.Get(ctx, "/admin/users/"+url.PathEscape(userID), out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteUser .
func (ur *UserRemote) DeleteUser(ctx context.Context, userID string) error {
	return ur.Client.Delete(ctx, "/admin/users/"+url.PathEscape(userID), nil)
}
