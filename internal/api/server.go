package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/example/studytrack/internal/logger"
)

const headerUserID = "X-User-ID"

type (
	Options struct {
		Address        string
		Debug          bool
		DisableReqLogs bool
		Service        TopicService
		Logger         *logger.Logger
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
		log  *logger.Logger
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
		log:  opts.Logger,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.Debug = s.opts.Debug
	s.app.Validator = &requestValidator{validate: validator.New()}
	s.app.HTTPErrorHandler = newHTTPErrorHandler(s.log)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(s.requestLogger())
	}
	s.app.Use(middleware.Recover())

	s.app.GET("/", home)

	v1 := s.app.Group("/v1", userMiddleware)
	registerTopicAPI(v1, s.opts.Service)
}

func (s *server) Start() error {
	s.log.Info("http server listening", "address", s.opts.Address)
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
			)
			return nil
		},
	})
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to studytrack API!")
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

const ctxUserKey = "userID"

// userMiddleware identifies the caller from the X-User-ID header.
// Authentication happens in front of this service.
func userMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := strconv.ParseInt(ctx.Request().Header.Get(headerUserID), 10, 64)
		if err != nil || id <= 0 {
			return errUnauthorized
		}
		ctx.Set(ctxUserKey, id)
		return next(ctx)
	}
}

func contextUserID(ctx echo.Context) int64 {
	id, _ := ctx.Get(ctxUserKey).(int64)
	return id
}
