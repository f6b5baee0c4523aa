package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/course-gateway/internal/course"
	"github.com/pot-code/course-gateway/internal/user"
)

// AdminHandler platform administration, routes are guarded by RequireAdmin
type AdminHandler struct {
	UserUseCase   user.UserUseCase
	CourseUseCase course.CourseUseCase
}

func NewAdminHandler(UserUseCase user.UserUseCase, CourseUseCase course.CourseUseCase) *AdminHandler {
	return &AdminHandler{UserUseCase, CourseUseCase}
}

func (ah *AdminHandler) HandleListUsers(c echo.Context) (err error) {
	users, err := ah.UserUseCase.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (ah *AdminHandler) HandleGetUser(c echo.Context) (err error) {
	u, err := ah.UserUseCase.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (ah *AdminHandler) HandleDeleteUser(c echo.Context) (err error) {
	if err := ah.UserUseCase.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (ah *AdminHandler) HandleListCourses(c echo.Context) (err error) {
	courses, err := ah.CourseUseCase.ListCourses(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, courses)
}

// HandleCreateCourse accepts the course document as the body or as an uploaded "file"
func (ah *AdminHandler) HandleCreateCourse(c echo.Context) (err error) {
	doc, err := readCourse(c)
	if err != nil {
		return err
	}
	id, err := ah.CourseUseCase.CreateCourse(c.Request().Context(), doc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"courseId": id})
}

func (ah *AdminHandler) HandleUpdateCourse(c echo.Context) (err error) {
	doc, err := readCourse(c)
	if err != nil {
		return err
	}
	if err := ah.CourseUseCase.UpdateCourse(c.Request().Context(), c.Param("id"), doc); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (ah *AdminHandler) HandleDeleteCourse(c echo.Context) (err error) {
	if err := ah.CourseUseCase.DeleteCourse(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func readCourse(c echo.Context) (*course.Course, error) {
	var body io.Reader = c.Request().Body
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "Course file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		body = f
	}
	return course.ParseCourseJSON(body)
}
