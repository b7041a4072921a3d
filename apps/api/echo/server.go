package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/dig"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/media"
	"github.com/trezcool/elimu/core/order"
	"github.com/trezcool/elimu/core/progress"
	"github.com/trezcool/elimu/core/user"
	mediasvc "github.com/trezcool/elimu/services/media"
)

type (
	// ServerDeps are the dependencies of the API server.
	ServerDeps struct {
		dig.In

		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		UserSvc        *user.Service
		CourseSvc      *course.Service
		EnrollmentSvc  *enrollment.Service
		ProgressSvc    *progress.Service
		OrderSvc       *order.Service
		MediaSvc       *media.Service
		DisableReqLogs bool `optional:"true" name:"disableReqLogs"`
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		shutdown chan os.Signal
		errors   chan error
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{conf.FrontendBaseURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	// local media files
	if conf.Media.Driver == "local" || conf.Media.Driver == "" {
		s.app.Static(mediasvc.MediaURLPrefix, mediasvc.LocalDir(conf))
	}

	v1 := s.app.Group("/v1")
	auth := newAuthenticator(conf, s.deps.UserSvc)
	jwt := middleware.JWTWithConfig(auth.jwtConfig)
	instructor := instructorMiddleware()

	registerAuthAPI(v1, jwt, auth, s.deps.UserSvc, s.deps.Validate)
	registerMediaAPI(v1, jwt, instructor, s.deps.MediaSvc)
	registerCourseAPI(v1, jwt, instructor, auth, s.deps.CourseSvc, s.deps.EnrollmentSvc, s.deps.Validate)
	registerOrderAPI(v1, jwt, auth, s.deps.OrderSvc, s.deps.Validate)
	registerStudentAPI(v1, jwt, s.deps.EnrollmentSvc, s.deps.ProgressSvc, s.deps.Validate)
}

// Start starts the HTTP server. Listen errors are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Errors reports the errors preventing the server from serving.
func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal receives the OS interrupt signals, and the internal shutdown requests.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

// Shutdown gracefully stops the server, waiting for outstanding requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

// Close forcefully stops the server.
func (s *Server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
