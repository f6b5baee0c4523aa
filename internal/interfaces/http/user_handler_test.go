package http

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/pot-code/course-gateway/internal/infrastructure/validate"
	"github.com/pot-code/course-gateway/internal/user"
)

type fakeUsers struct {
	user.UserUseCase
	theme user.Theme
}

func (f *fakeUsers) SignIn(ctx context.Context, form *user.SignInForm) (*user.Session, error) {
	if form.Password != "secret" {
		return nil, user.ErrNoSuchUser
	}
	return &user.Session{
		ID:          "sid-1",
		User:        user.UserModel{ID: "u1", Name: "Ada", Email: form.Email, Role: "ROLE_USER"},
		RemoteToken: "remote-token",
	}, nil
}

func (f *fakeUsers) SignUp(ctx context.Context, form *user.SignUpForm) (*user.UserModel, error) {
	return &user.UserModel{ID: "u2", Name: form.Name, Email: form.Email}, nil
}

func (f *fakeUsers) SetTheme(ctx context.Context, userID string, theme user.Theme) error {
	f.theme = theme
	return nil
}

func TestSignInIssuesToken(t *testing.T) {
	ju := newTestJWT()
	uh := NewUserHandler(ju, &fakeUsers{}, validate.NewValidator())

	rec := call(t, ju, uh.HandleSignIn, http.MethodPost, `{"email":"ada@example.com","password":"secret"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), "cgw_token=") {
		t.Fatal("token cookie not set")
	}
	var res signInResponse
	decode(t, rec, &res)
	claims, err := ju.Validate(res.Token)
	if err != nil {
		t.Fatalf("issued token is invalid: %v", err)
	}
	if claims.UID != "u1" || claims.SessionID != "sid-1" || claims.TimeRemaining() <= 59*time.Minute {
		t.Fatalf("unexpected claims %+v", claims)
	}

	rec = call(t, ju, uh.HandleSignIn, http.MethodPost, `{"email":"ada@example.com","password":"nope"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad credential: expected 401, got %d", rec.Code)
	}
	rec = call(t, ju, uh.HandleSignIn, http.MethodPost, `{"email":"not-an-email","password":"secret"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad email: expected 400, got %d", rec.Code)
	}
}

func TestSignUpValidatesPassword(t *testing.T) {
	ju := newTestJWT()
	uh := NewUserHandler(ju, &fakeUsers{}, validate.NewValidator())

	rec := call(t, ju, uh.HandleSignUp, http.MethodPost, `{"name":"Ada","email":"ada@example.com","password":"123"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short password: expected 400, got %d", rec.Code)
	}
	var res RESTValidationError
	decode(t, rec, &res)
	if len(res.InvalidParams) != 1 || res.InvalidParams[0].Domain != "password" {
		t.Fatalf("unexpected invalid params %s", rec.Body)
	}

	rec = call(t, ju, uh.HandleSignUp, http.MethodPost, `{"name":"Ada","email":"ada@example.com","password":"123456"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestSetTheme(t *testing.T) {
	ju := newTestJWT()
	users := &fakeUsers{}
	uh := NewUserHandler(ju, users, validate.NewValidator())

	if rec := call(t, ju, uh.HandleSetTheme, http.MethodPut, `{"theme":"sepia"}`, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := call(t, ju, uh.HandleSetTheme, http.MethodPut, `{"theme":"dark"}`, ""); rec.Code != http.StatusOK || users.theme != user.ThemeDark {
		t.Fatalf("set theme: %d %q", rec.Code, users.theme)
	}
}
