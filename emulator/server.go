// Package emulator runs an in-process stand-in for the hosted platform:
// REST tables, token auth, a realtime push channel and object storage.
// It backs local development and the integration tests.
package emulator

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/shulehq/shule/core"
)

type (
	Options struct {
		Address        string
		AnonKey        string
		JWTSecret      string
		DisableReqLogs bool
		Logger         core.Logger
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
		Seed()
	}

	server struct {
		opts    *Options
		app     *echo.Echo
		tables  *tables
		users   *userTable
		hub     *hub
		objects *objectStore
	}
)

var _ Server = (*server)(nil)

const (
	defaultAnonKey   = "emulator-anon"
	defaultJWTSecret = "emulator-secret"
)

func NewServer(opts *Options) Server {
	if opts.AnonKey == "" {
		opts.AnonKey = defaultAnonKey
	}
	if opts.JWTSecret == "" {
		opts.JWTSecret = defaultJWTSecret
	}
	s := &server{
		opts:    opts,
		app:     echo.New(),
		tables:  newTables(),
		users:   newUserTable(),
		hub:     newHub(),
		objects: newObjectStore(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	s.app.HTTPErrorHandler = newHTTPErrorHandler(s.opts.Logger)
	s.app.HideBanner = true

	s.app.GET("/", home)
	s.app.POST("/auth/v1/token", s.token)

	v1 := s.app.Group("/v1", s.requireAPIKey)
	v1.GET("/:entity", s.list)
	v1.GET("/:entity/:id", s.get)
	v1.POST("/:entity", s.create, s.requireWriter)
	v1.PATCH("/:entity/:id", s.update, s.requireWriter)
	v1.DELETE("/:entity/:id", s.remove, s.requireWriter)

	s.app.GET("/realtime/v1/:entity", s.subscribe)

	st := s.app.Group("/storage/v1", s.requireAPIKey)
	st.GET("/:bucket/:name", s.getObject)
	st.POST("/:bucket/:name", s.putObject, s.requireWriter)
	st.DELETE("/:bucket/:name", s.removeObject, s.requireWriter)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	s.hub.closeAll()
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Shule platform emulator")
}
