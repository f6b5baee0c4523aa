package http

import (
	"github.com/labstack/echo/v4"
	infra "github.com/pot-code/course-gateway/internal/infrastructure"
)

func v1Endpoint(
	websocket *infra.Websocket,
	UserHandler *UserHandler,
	CourseHandler *CourseHandler,
	LearnHandler *LearnHandler,
	AdminHandler *AdminHandler,
	jwtMiddleware echo.MiddlewareFunc,
	refreshMiddleware echo.MiddlewareFunc,
	adminMiddleware echo.MiddlewareFunc,
	requestIDMiddleware echo.MiddlewareFunc,
	traceLoggerMiddleware echo.MiddlewareFunc,
) *endpoint {
	authenticated := []echo.MiddlewareFunc{jwtMiddleware, refreshMiddleware}
	return &endpoint{
		apiVersion:  "api/v1",
		middlewares: []echo.MiddlewareFunc{requestIDMiddleware, traceLoggerMiddleware},
		groups: []*apiGroup{
			{
				prefix: "/user",
				routes: []*route{
					{"POST", "/login", UserHandler.HandleSignIn, nil},
					{"PUT", "/sign-out", UserHandler.HandleSignOut, nil},
					{"POST", "/sign-up", UserHandler.HandleSignUp, nil},
					{"GET", "/profile", UserHandler.HandleProfile, authenticated},
					{"GET", "/validate", UserHandler.HandleValidate, authenticated},
					{"GET", "/dashboard", UserHandler.HandleDashboard, authenticated},
					{"GET", "/theme", UserHandler.HandleGetTheme, authenticated},
					{"PUT", "/theme", UserHandler.HandleSetTheme, authenticated},
				},
			},
			{
				prefix:      "/course",
				middlewares: authenticated,
				routes: []*route{
					{"GET", "/liked", CourseHandler.HandleLikedCourses, nil},
					{"GET", "/enrolled", CourseHandler.HandleEnrolledCourses, nil},
					{"GET", "/:id", CourseHandler.HandleGetCourse, nil},
					{"POST", "/:id/enroll", CourseHandler.HandleEnroll, nil},
					{"DELETE", "/:id/enroll", CourseHandler.HandleUnenroll, nil},
					{"POST", "/:id/like", CourseHandler.HandleLike, nil},
					{"DELETE", "/:id/like", CourseHandler.HandleUnlike, nil},
				},
			},
			{
				prefix:      "/learn",
				middlewares: authenticated,
				routes: []*route{
					{"GET", "/:id", LearnHandler.HandleOpen, nil},
					{"POST", "/:id/complete", LearnHandler.HandleComplete, nil},
					{"POST", "/:id/answer", LearnHandler.HandleAnswer, nil},
					{"POST", "/:id/next", LearnHandler.HandleNext, nil},
					{"POST", "/:id/previous", LearnHandler.HandlePrevious, nil},
				},
			},
			{
				prefix:      "/admin",
				middlewares: []echo.MiddlewareFunc{jwtMiddleware, refreshMiddleware, adminMiddleware},
				routes: []*route{
					{"GET", "/users", AdminHandler.HandleListUsers, nil},
					{"GET", "/users/:id", AdminHandler.HandleGetUser, nil},
					{"DELETE", "/users/:id", AdminHandler.HandleDeleteUser, nil},
					{"GET", "/courses", AdminHandler.HandleListCourses, nil},
					{"POST", "/courses", AdminHandler.HandleCreateCourse, nil},
					{"PUT", "/courses/:id", AdminHandler.HandleUpdateCourse, nil},
					{"DELETE", "/courses/:id", AdminHandler.HandleDeleteCourse, nil},
				},
			},
			{
				prefix:      "/ws",
				middlewares: []echo.MiddlewareFunc{jwtMiddleware},
				routes: []*route{
					{"GET", "/progress/:id", websocket.WithHeartbeat(LearnHandler.HandleProgressStream), nil},
				},
			},
		},
	}
}
