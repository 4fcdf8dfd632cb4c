package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/scoreline-core/internal/discovery"
	"github.com/nerrad567/scoreline-core/internal/history"
	"github.com/nerrad567/scoreline-core/internal/infrastructure/config"
	"github.com/nerrad567/scoreline-core/internal/infrastructure/logging"
	"github.com/nerrad567/scoreline-core/internal/orchestrator"
	"github.com/nerrad567/scoreline-core/internal/scorefeed"
	"github.com/nerrad567/scoreline-core/internal/teams"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Conductor is the command surface the API exposes over HTTP.
// Implemented by orchestrator.Orchestrator.
type Conductor interface {
	Watch(ctx context.Context, host, league, gameID string) error
	Stop(ctx context.Context, host string) error
	Simulate(ctx context.Context, host string, params orchestrator.SimulateParams) error
	SimulateStop(ctx context.Context, host string) error
	Status(host string) (orchestrator.DeviceStatus, error)
	StatusAll() []orchestrator.DeviceStatus
}

// ScoreboardFeed lists games for a league. Implemented by scorefeed.Client.
type ScoreboardFeed interface {
	GetScoreboard(ctx context.Context, league, sport string) ([]scorefeed.GameSummary, error)
}

// GameHistory lists finished games. Implemented by history.SQLiteRepository.
type GameHistory interface {
	List(ctx context.Context, filter history.Filter) ([]history.Entry, error)
}

// Scanner finds WLED devices on the local network.
type Scanner func(ctx context.Context, window time.Duration) ([]discovery.Device, error)

// Deps holds the dependencies required by the API server.
// History and ExternalHub are optional.
type Deps struct {
	Config       *config.Store
	Orchestrator Conductor
	Teams        *teams.Directory
	Feed         ScoreboardFeed
	History      GameHistory
	Logger       *logging.Logger
	ExternalHub  *Hub // If set, the server uses this hub instead of creating its own
	Scanner      Scanner
	Version      string
}

// Server is the HTTP API and WebSocket server for Scoreline Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	store       *config.Store
	orch        Conductor
	teams       *teams.Directory
	feed        ScoreboardFeed
	history     GameHistory
	logger      *logging.Logger
	scanner     Scanner
	version     string
	server      *http.Server
	hub         *Hub
	externalHub bool
	cancel      context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config store is required")
	}
	if deps.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	if deps.Teams == nil {
		return nil, fmt.Errorf("team directory is required")
	}
	if deps.Feed == nil {
		return nil, fmt.Errorf("score feed is required")
	}
	if deps.Scanner == nil {
		deps.Scanner = discovery.Scan
	}

	s := &Server{
		store:   deps.Config,
		orch:    deps.Orchestrator,
		teams:   deps.Teams,
		feed:    deps.Feed,
		history: deps.History,
		logger:  deps.Logger,
		scanner: deps.Scanner,
		version: deps.Version,
	}

	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
		s.externalHub = true
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the HTTP
// listener in a background goroutine. The server is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	cfg := s.store.Get()

	if s.hub == nil {
		s.hub = NewHub(cfg.WebSocket, s.logger)
		go s.hub.Run(srvCtx)
	}

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler:           router,
		ReadTimeout:       cfg.GetReadTimeout(),
		ReadHeaderTimeout: cfg.GetReadTimeout(),
		WriteTimeout:      cfg.GetWriteTimeout(),
		IdleTimeout:       cfg.GetIdleTimeout(),
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

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

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
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

// Hub returns the server's WebSocket hub, nil before Start.
func (s *Server) Hub() *Hub {
	return s.hub
}
