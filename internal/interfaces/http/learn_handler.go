package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	infra "github.com/pot-code/course-gateway/internal/infrastructure"
	"github.com/pot-code/course-gateway/internal/infrastructure/auth"
	"github.com/pot-code/course-gateway/internal/infrastructure/validate"
	"github.com/pot-code/course-gateway/internal/progression"
)

// LearnHandler drives the progression engine of the caller
type LearnHandler struct {
	JWTUtil   *auth.JWTUtil
	Sessions  *progression.Registry
	Hub       *progression.Hub
	Validator validate.Validator
}

func NewLearnHandler(
	JWTUtil *auth.JWTUtil,
	Sessions *progression.Registry,
	Hub *progression.Hub,
	Validator validate.Validator,
) *LearnHandler {
	return &LearnHandler{
		JWTUtil:   JWTUtil,
		Sessions:  Sessions,
		Hub:       Hub,
		Validator: Validator,
	}
}

type answerBody struct {
	Option *int `json:"option" validate:"required"`
}

type answerOutcome struct {
	Correct       bool   `json:"correct"`
	CorrectOption int    `json:"correctOption"`
	Explanation   string `json:"explanation,omitempty"`
}

// learnResponse engine state after an operation, Warning is set when the change
// is applied locally but could not be saved
type learnResponse struct {
	*progression.View
	Answer   *answerOutcome `json:"answer,omitempty"`
	Finished bool           `json:"finished,omitempty"`
	Warning  string         `json:"warning,omitempty"`
}

func (lh *LearnHandler) engine(c echo.Context) (*progression.Engine, error) {
	claims := lh.JWTUtil.GetContextToken(c)
	return lh.Sessions.Open(c.Request().Context(), claims.UID, c.Param("id"))
}

// respond reply with the engine state, persistence failures are reported but not fatal
func respond(c echo.Context, engine *progression.Engine, opErr error, build func(*learnResponse)) error {
	if opErr != nil && !errors.Is(opErr, progression.ErrPersistenceFailure) {
		return opErr
	}
	view, err := engine.View()
	if err != nil {
		return err
	}
	res := &learnResponse{View: view}
	if opErr != nil {
		res.Warning = opErr.Error()
	}
	if build != nil {
		build(res)
	}
	return c.JSON(http.StatusOK, res)
}

// HandleOpen the live engine of the course, loading stored progress when there is none
func (lh *LearnHandler) HandleOpen(c echo.Context) (err error) {
	claims := lh.JWTUtil.GetContextToken(c)
	engine, err := lh.Sessions.Open(c.Request().Context(), claims.UID, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, engine, nil, nil)
}

func (lh *LearnHandler) HandleComplete(c echo.Context) (err error) {
	engine, err := lh.engine(c)
	if err != nil {
		return err
	}
	_, err = engine.MarkTechnicalComplete(c.Request().Context())
	return respond(c, engine, err, nil)
}

func (lh *LearnHandler) HandleAnswer(c echo.Context) (err error) {
	post := new(answerBody)
	if err = c.Bind(post); err != nil {
		return bindError(c, err, "answer")
	}
	if err := lh.Validator.Struct(post); err != nil {
		return c.JSON(http.StatusBadRequest,
			NewRESTValidationError(http.StatusBadRequest, "Failed to validate fields", err))
	}

	engine, err := lh.engine(c)
	if err != nil {
		return err
	}
	result, err := engine.AnswerQuiz(c.Request().Context(), *post.Option)
	return respond(c, engine, err, func(res *learnResponse) {
		res.Answer = &answerOutcome{
			Correct:       result.Correct,
			CorrectOption: result.CorrectOption,
			Explanation:   result.Explanation,
		}
	})
}

func (lh *LearnHandler) HandleNext(c echo.Context) (err error) {
	engine, err := lh.engine(c)
	if err != nil {
		return err
	}
	result, err := engine.Advance(c.Request().Context())
	return respond(c, engine, err, func(res *learnResponse) {
		res.Finished = result.Finished
	})
}

func (lh *LearnHandler) HandlePrevious(c echo.Context) (err error) {
	engine, err := lh.engine(c)
	if err != nil {
		return err
	}
	_, err = engine.Retreat(c.Request().Context())
	return respond(c, engine, err, nil)
}

// HandleProgressStream push engine events of one course until the socket or the session closes
func (lh *LearnHandler) HandleProgressStream(ctx context.Context, c echo.Context, ws *infra.WebsocketConn) error {
	claims := lh.JWTUtil.GetContextToken(c)
	courseID := c.Param("id")

	sub := lh.Hub.Subscribe(claims.UID, courseID)
	defer sub.Close()

	engine, err := lh.Sessions.Open(ctx, claims.UID, courseID)
	if err != nil {
		ws.WriteJSON(&progression.Event{Type: progression.EventWarning, Warning: err.Error()})
		return err
	}
	if view, err := engine.View(); err == nil {
		if err := ws.WriteJSON(&progression.Event{Type: progression.EventSnapshot, View: view}); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.C:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(&ev); err != nil {
				return err
			}
			if ev.Type == progression.EventClosed {
				return nil
			}
		}
	}
}
