// Package dispatcher exposes the invoker's HTTP surface: run routes (by
// action, and by raw image) that drive the container pool end to end, a
// status route, and the thin
// admin routes the CLI talks to. It performs no admission control or
// scheduling of its own — that is out of scope.
package dispatcher

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lithammer/shortuuid"

	"github.com/sunnyhub/openwhisk/internal/config"
	"github.com/sunnyhub/openwhisk/internal/container"
	"github.com/sunnyhub/openwhisk/internal/containerpool"
)

// Server wires the container pool and backend to an Echo instance.
type Server struct {
	echo           *echo.Echo
	pool           *containerpool.Pool
	backend        container.ContainerBackend
	requestTimeout time.Duration
}

// NewServer builds a Server and registers its routes. Call Start to listen.
func NewServer(pool *containerpool.Pool, backend container.ContainerBackend) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	s := &Server{
		echo:    e,
		pool:    pool,
		backend: backend,
		requestTimeout: time.Duration(config.GetInt(config.DISPATCHER_REQUEST_TIMEOUT, 60)) *
			time.Second,
	}

	e.POST("/run/:namespace/:action", s.handleRun)
	e.POST("/run/image", s.handleRunImage)
	e.GET("/status", s.handleStatus)
	e.POST("/admin/gc/force", s.handleGCForce)
	e.POST("/admin/gc/enable", s.handleGCEnable)
	e.POST("/admin/gc/disable", s.handleGCDisable)
	e.POST("/admin/stragglers/kill", s.handleKillStragglers)

	return s
}

// Start blocks, listening on addr (e.g. ":1323").
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully stops accepting requests, waiting up to ctx's deadline
// for in-flight ones to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// newRequestID is used where the Echo request-id middleware isn't in scope:
// it supplies the requestId of every run response.
func newRequestID() string {
	return shortuuid.New()
}
