package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/course-gateway/internal/course"
	"github.com/pot-code/course-gateway/internal/infrastructure/auth"
)

// CourseHandler catalog, enrollment and likes of the caller
type CourseHandler struct {
	JWTUtil       *auth.JWTUtil
	CourseUseCase course.CourseUseCase
}

func NewCourseHandler(JWTUtil *auth.JWTUtil, CourseUseCase course.CourseUseCase) *CourseHandler {
	return &CourseHandler{JWTUtil, CourseUseCase}
}

func (ch *CourseHandler) HandleGetCourse(c echo.Context) (err error) {
	detail, err := ch.CourseUseCase.FetchCourse(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

func (ch *CourseHandler) HandleEnrolledCourses(c echo.Context) (err error) {
	courses, err := ch.CourseUseCase.EnrolledCourses(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, courses)
}

func (ch *CourseHandler) HandleLikedCourses(c echo.Context) (err error) {
	ids, err := ch.CourseUseCase.LikedCourses(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ids)
}

func (ch *CourseHandler) HandleEnroll(c echo.Context) (err error) {
	if err := ch.CourseUseCase.Enroll(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleUnenroll also discards the open learning session of the course
func (ch *CourseHandler) HandleUnenroll(c echo.Context) (err error) {
	claims := ch.JWTUtil.GetContextToken(c)
	if err := ch.CourseUseCase.Unenroll(c.Request().Context(), claims.UID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (ch *CourseHandler) HandleLike(c echo.Context) (err error) {
	if err := ch.CourseUseCase.Like(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (ch *CourseHandler) HandleUnlike(c echo.Context) (err error) {
	if err := ch.CourseUseCase.Unlike(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
