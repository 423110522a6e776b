package echoweb

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/session"
	"github.com/trezcool/fellowship/fs"
	"github.com/trezcool/fellowship/services/api"
)

type (
	ServerDeps struct {
		Conf     *core.Config
		Logger   core.Logger
		API      *api.Client
		Sessions session.Store
		Email    core.EmailService
	}

	Server struct {
		*http.Server
		app      *echo.Echo
		deps     ServerDeps
		render   *renderer
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	conf := deps.Conf
	s := &Server{
		Server: &http.Server{
			Addr:         conf.Server.Address,
			ReadTimeout:  conf.Server.ReadTimeout,
			WriteTimeout: conf.Server.WriteTimeout,
		},
		app:      echo.New(),
		deps:     deps,
		errors:   make(chan error, 1),
		shutdown: shutdown,
	}
	s.Handler = s.app
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf
	s.render = newRenderer(conf)

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.Renderer = s.render
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s, func() { s.SignalShutdown() })

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Pre(middleware.MethodOverrideWithConfig(middleware.MethodOverrideConfig{
		Getter: middleware.MethodFromForm("_method"),
	}))
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "same-origin",
	}))
	s.app.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:" + csrfField,
		CookieName:     csrfCookie,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   conf.Session.Secure,
		CookieSameSite: http.SameSiteLaxMode,
		ErrorHandler:   func(error, echo.Context) error { return errStaleForm },
	}))

	s.app.StaticFS("/static", echo.MustSubFS(appfs.FS, "assets/static"))
	s.app.GET("/healthz", func(ctx echo.Context) error { return ctx.String(http.StatusOK, "ok") })

	app := s.app.Group("", s.sessionMiddleware)
	registerAuthViews(app, s)
	registerDashboardViews(app, s)
	registerChildViews(app, s)
	registerRosterViews(app, s)
	registerAttendanceViews(app, s)
	registerReportViews(app, s)
	registerNotificationViews(app, s)
	registerTeacherViews(app, s)
	registerProfileViews(app, s)
}

// Start listens until the server is shut down; failures are sent on Errors.
func (s *Server) Start() {
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// SignalShutdown asks the process to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.Server.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
