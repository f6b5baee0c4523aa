package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/course-gateway/internal/infrastructure/auth"
	"github.com/pot-code/course-gateway/internal/infrastructure/validate"
	"github.com/pot-code/course-gateway/internal/user"
)

// UserHandler user related operations
type UserHandler struct {
	JWTUtil     *auth.JWTUtil
	UserUseCase user.UserUseCase
	Validator   validate.Validator
}

// NewUserHandler create an user controller instance
func NewUserHandler(
	JWTUtil *auth.JWTUtil,
	UserUseCase user.UserUseCase,
	Validator validate.Validator,
) *UserHandler {
	return &UserHandler{
		JWTUtil:     JWTUtil,
		UserUseCase: UserUseCase,
		Validator:   Validator,
	}
}

type signInResponse struct {
	Token string          `json:"token"`
	User  *user.UserModel `json:"user"`
}

type themeBody struct {
	Theme user.Theme `json:"theme" validate:"required"`
}

// HandleSignIn ...
func (uh *UserHandler) HandleSignIn(c echo.Context) (err error) {
	ju := uh.JWTUtil

	post := new(user.SignInForm)
	if err = c.Bind(post); err != nil {
		return bindError(c, err, "credential")
	}
	if err := uh.Validator.Struct(post); err != nil {
		return c.JSON(http.StatusBadRequest,
			NewRESTValidationError(http.StatusBadRequest, "Failed to validate fields", err))
	}

	session, err := uh.UserUseCase.SignIn(c.Request().Context(), post)
	if err != nil {
		return err
	}
	profile := session.User
	tokenStr, err := ju.IssueToken(profile.ID, profile.Email, profile.Name, profile.Role, session.ID)
	if err != nil {
		return err
	}
	ju.SetClientToken(c, tokenStr)
	return c.JSON(http.StatusOK, &signInResponse{Token: tokenStr, User: &profile})
}

// HandleSignUp ...
func (uh *UserHandler) HandleSignUp(c echo.Context) (err error) {
	post := new(user.SignUpForm)
	if err = c.Bind(post); err != nil {
		return bindError(c, err, "user entity")
	}
	if err := uh.Validator.Struct(post); err != nil {
		return c.JSON(http.StatusBadRequest,
			NewRESTValidationError(http.StatusBadRequest, "Failed to validate fields", err))
	}

	created, err := uh.UserUseCase.SignUp(c.Request().Context(), post)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// HandleSignOut ...
func (uh *UserHandler) HandleSignOut(c echo.Context) (err error) {
	ju := uh.JWTUtil

	tokenStr, err := ju.ExtractToken(c)
	if err != nil {
		return c.NoContent(http.StatusOK)
	}
	token, err := ju.Validate(tokenStr)
	if err != nil {
		ju.ClearClientToken(c)
		return c.NoContent(http.StatusUnauthorized)
	}
	if err := uh.UserUseCase.SignOut(c.Request().Context(),
		token.SessionID, token.UID, tokenStr, token.TimeRemaining()); err != nil {
		return err
	}
	ju.ClearClientToken(c)
	return c.NoContent(http.StatusOK)
}

// HandleProfile cached profile of the caller
func (uh *UserHandler) HandleProfile(c echo.Context) (err error) {
	claims := uh.JWTUtil.GetContextToken(c)
	session, err := uh.UserUseCase.Session(c.Request().Context(), claims.SessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &session.User)
}

// HandleValidate check the platform still accepts the session
func (uh *UserHandler) HandleValidate(c echo.Context) (err error) {
	claims := uh.JWTUtil.GetContextToken(c)
	profile, err := uh.UserUseCase.Validate(c.Request().Context(), claims.SessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"valid": true, "user": profile})
}

// HandleDashboard ...
func (uh *UserHandler) HandleDashboard(c echo.Context) (err error) {
	claims := uh.JWTUtil.GetContextToken(c)
	dashboard, err := uh.UserUseCase.Dashboard(c.Request().Context(), claims.SessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboard)
}

// HandleGetTheme ...
func (uh *UserHandler) HandleGetTheme(c echo.Context) (err error) {
	claims := uh.JWTUtil.GetContextToken(c)
	theme, err := uh.UserUseCase.GetTheme(c.Request().Context(), claims.UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &themeBody{Theme: theme})
}

// HandleSetTheme ...
func (uh *UserHandler) HandleSetTheme(c echo.Context) (err error) {
	claims := uh.JWTUtil.GetContextToken(c)

	post := new(themeBody)
	if err = c.Bind(post); err != nil {
		return bindError(c, err, "theme")
	}
	if err := uh.Validator.Var("theme", string(post.Theme), "oneof=light dark"); err != nil {
		return c.JSON(http.StatusBadRequest,
			NewRESTValidationError(http.StatusBadRequest, "Failed to validate fields", err))
	}
	if err := uh.UserUseCase.SetTheme(c.Request().Context(), claims.UID, post.Theme); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}
