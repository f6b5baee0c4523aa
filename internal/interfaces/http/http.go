package http

import (
	"expvar"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
	"github.com/pot-code/course-gateway/internal/course"
	infra "github.com/pot-code/course-gateway/internal/infrastructure"
	"github.com/pot-code/course-gateway/internal/infrastructure/auth"
	"github.com/pot-code/course-gateway/internal/infrastructure/driver"
	"github.com/pot-code/course-gateway/internal/infrastructure/validate"
	"github.com/pot-code/course-gateway/internal/interfaces/http/middleware"
	"github.com/pot-code/course-gateway/internal/progression"
	"github.com/pot-code/course-gateway/internal/user"
	"go.elastic.co/apm/module/apmechov4"
	"go.uber.org/zap"
)

type endpoint struct {
	apiVersion  string
	middlewares []echo.MiddlewareFunc
	groups      []*apiGroup
}

type apiGroup struct {
	prefix      string
	middlewares []echo.MiddlewareFunc
	routes      []*route
}

type route struct {
	method      string
	path        string
	handler     echo.HandlerFunc
	middlewares []echo.MiddlewareFunc
}

// Serve create http transport server, conn is nil unless progress is kept in SQL
func Serve(
	conn driver.ITransactionalDB,
	rdb driver.KeyValueDB,
	option *infra.AppConfig,
	UserUseCase user.UserUseCase,
	CourseUseCase course.CourseUseCase,
	Sessions *progression.Registry,
	Hub *progression.Hub,
	logger *zap.Logger,
) {
	app := NewApp(conn, rdb, option, UserUseCase, CourseUseCase, Sessions, Hub, logger)
	printRoutes(app, logger)
	if err := app.Start(fmt.Sprintf("%s:%d", option.Host, option.Port)); err != nil {
		log.Fatal(err)
	}
}

// NewApp assemble middlewares and routes
func NewApp(
	conn driver.ITransactionalDB,
	rdb driver.KeyValueDB,
	option *infra.AppConfig,
	UserUseCase user.UserUseCase,
	CourseUseCase course.CourseUseCase,
	Sessions *progression.Registry,
	Hub *progression.Hub,
	logger *zap.Logger,
) *echo.Echo {
	var (
		app       = echo.New()
		validator = validate.NewValidator()
		websocket = infra.NewWebsocket(option.AllowOrigins)
		jwtUtil   = auth.NewJWTUtil(option.Security.JWTMethod,
			option.Security.JWTSecret,
			option.Security.TokenName,
			option.SessionTimeout)
		jwtMiddleware = middleware.VerifyToken(jwtUtil, &middleware.ValidateTokenOption{
			InBlackList: UserUseCase.IsBlacklisted,
			LoadSession: UserUseCase.Session,
		})
		refreshMiddleware = middleware.RefreshToken(jwtUtil, &middleware.RefreshTokenOption{
			Threshold:      option.SessionRefresh,
			RefreshSession: UserUseCase.RefreshSession,
		})
		adminMiddleware = middleware.RequireAdmin(jwtUtil)
	)
	app.HideBanner = true

	registerLivenessProbe(app, conn, rdb)
	if option.Env == infra.EnvDevelopment {
		registerProfileEndpoints(app)
	}
	app.Use(middleware.Logging(logger, &middleware.LoggingConfig{
		Skipper: func(e echo.Context) bool {
			return strings.HasPrefix(e.Request().RequestURI, "/healthz")
		},
	}))
	app.Use(middleware.ErrorHandling(
		&middleware.ErrorHandlingOption{
			Handler: handleError,
			Logger:  logger,
		},
	))
	app.Use(echo_middleware.Secure())
	if option.DevOP.APM {
		app.Use(apmechov4.Middleware())
	}
	app.Use(echo_middleware.CORSWithConfig(echo_middleware.CORSConfig{
		AllowOrigins:     option.AllowOrigins,
		AllowCredentials: true,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, echo.HeaderXRequestedWith, echo.HeaderXRequestID},
	}))
	app.Use(middleware.AbortRequest(&middleware.AbortRequestOption{
		Timeout: option.RequestTimeout,
		Skipper: func(e echo.Context) bool {
			return strings.HasPrefix(e.Request().URL.Path, "/api/v1/ws/")
		},
	}))

	var (
		UserHandler   = NewUserHandler(jwtUtil, UserUseCase, validator)
		CourseHandler = NewCourseHandler(jwtUtil, CourseUseCase)
		LearnHandler  = NewLearnHandler(jwtUtil, Sessions, Hub, validator)
		AdminHandler  = NewAdminHandler(UserUseCase, CourseUseCase)
	)

	requestIDMiddleware := echo_middleware.RequestIDWithConfig(echo_middleware.RequestIDConfig{
		Generator: func() string {
			return uuid.New().String()
		},
	})
	createEndpoint(app, v1Endpoint(
		websocket,
		UserHandler,
		CourseHandler,
		LearnHandler,
		AdminHandler,
		jwtMiddleware, refreshMiddleware, adminMiddleware,
		requestIDMiddleware, middleware.SetTraceLogger(logger),
	))
	return app
}

func printRoutes(app *echo.Echo, logger *zap.Logger) {
	for _, route := range app.Routes() {
		if strings.HasPrefix(route.Name, "github.com/labstack/echo") {
			continue
		}
		logger.Debug("Registered route",
			zap.String("method", route.Method),
			zap.String("path", route.Path),
			zap.String("name", route.Name[strings.LastIndexByte(route.Name, '/')+1:]))
	}
}

func registerLivenessProbe(app *echo.Echo, db driver.ITransactionalDB, rdb driver.KeyValueDB) {
	app.GET("/healthz", func(c echo.Context) error {
		if err := rdb.Ping(); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		if db != nil && db.Ping() != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
}

// registerProfileEndpoints exposes expvar and net/http/pprof under /debug
func registerProfileEndpoints(app *echo.Echo) {
	debug := app.Group("/debug")
	debug.GET("/vars", echo.WrapHandler(expvar.Handler()))
	debug.GET("/pprof/", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	debug.GET("/pprof/cmdline", echo.WrapHandler(http.HandlerFunc(pprof.Cmdline)))
	debug.GET("/pprof/profile", echo.WrapHandler(http.HandlerFunc(pprof.Profile)))
	debug.GET("/pprof/symbol", echo.WrapHandler(http.HandlerFunc(pprof.Symbol)))
	debug.GET("/pprof/trace", echo.WrapHandler(http.HandlerFunc(pprof.Trace)))
	debug.GET("/pprof/:name", func(c echo.Context) error {
		pprof.Handler(c.Param("name")).ServeHTTP(c.Response(), c.Request())
		return nil
	})
}

func createEndpoint(app *echo.Echo, def *endpoint) {
	root := app.Group("/"+strings.TrimPrefix(def.apiVersion, "/"), def.middlewares...)
	for _, group := range def.groups {
		g := root.Group(group.prefix, group.middlewares...)
		for _, api := range group.routes {
			switch api.method {
			case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodHead:
				g.Add(api.method, api.path, api.handler, api.middlewares...)
			default:
				panic(fmt.Errorf("createEndpoint: unknown method %s", api.method))
			}
		}
	}
}
