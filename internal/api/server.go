// Package api provides the admin HTTP REST API for the item bridge.
//
// It exposes item lifecycle operations (add, reconfigure, delete),
// per-item commands, runtime snapshots and the driver status string.
// The API binds to localhost by default and carries no authentication;
// deployments exposing it further out are expected to front it with a
// reverse proxy.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/itembridge/internal/audit"
	"github.com/nerrad567/itembridge/internal/infrastructure/config"
	"github.com/nerrad567/itembridge/internal/infrastructure/logging"
	"github.com/nerrad567/itembridge/internal/item"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Driver is the slice of the item driver the API serves.
type Driver interface {
	AddItem(ctx context.Context, rec item.Item) (item.Item, error)
	UpdateItem(ctx context.Context, id int, rec item.Item) (item.Item, error)
	RemoveItem(ctx context.Context, id int) error
	Item(id int) (item.Item, error)
	Snapshot(id int) (item.Snapshot, error)
	Snapshots() []item.Snapshot
	TurnOn(id int) error
	TurnOff(id int) error
	Press(id int) error
	SetVariable(id int, value string) error
	Status() string
}

// Deps holds the dependencies required by the API server.
//
// Audit is optional: when nil, mutations are not recorded in the
// activity log and the audit endpoint returns empty results.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	Driver  Driver
	Audit   audit.Repository
	Version string

	// DefaultQoS is applied to created items whose request body
	// leaves qos unset. Taken from the mqtt section of the config.
	DefaultQoS byte
}

// Server is the admin HTTP server.
//
// It manages the HTTP listener, routes and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	logger     *logging.Logger
	driver     Driver
	audit      audit.Repository
	version    string
	defaultQoS byte
	server     *http.Server
}

// New creates an API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Driver == nil {
		return nil, fmt.Errorf("driver is required")
	}

	return &Server{
		cfg:        deps.Config,
		logger:     deps.Logger,
		driver:     deps.Driver,
		audit:      deps.Audit,
		version:    deps.Version,
		defaultQoS: deps.DefaultQoS,
	}, nil
}

// Start begins listening for HTTP connections in a background
// goroutine. The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
