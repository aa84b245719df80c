package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/crowdsight/crowdsight-core/internal/analysis"
	"github.com/crowdsight/crowdsight-core/internal/auth"
	"github.com/crowdsight/crowdsight-core/internal/history"
	"github.com/crowdsight/crowdsight-core/internal/infrastructure/config"
	"github.com/crowdsight/crowdsight-core/internal/infrastructure/influxdb"
	"github.com/crowdsight/crowdsight-core/internal/infrastructure/logging"
	"github.com/crowdsight/crowdsight-core/internal/infrastructure/mqtt"
	"github.com/crowdsight/crowdsight-core/internal/live"
	"github.com/crowdsight/crowdsight-core/internal/place"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Media    config.MediaConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	DB       *sql.DB
	Places   place.Repository
	Live     live.Repository
	History  history.Repository
	Users    auth.UserRepository
	Engine   *analysis.Engine
	MQTT     *mqtt.Client     // optional: occupancy fan-out to the broker
	Influx   *influxdb.Client // optional: long-term sample storage
	Version  string
}

// Server is the HTTP API server for CrowdSight.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	mediaCfg config.MediaConfig
	secCfg   config.SecurityConfig
	logger   *logging.Logger
	db       *sql.DB
	places   place.Repository
	liveRepo live.Repository
	histRepo history.Repository
	users    auth.UserRepository
	engine   *analysis.Engine
	mqtt     *mqtt.Client
	influx   *influxdb.Client
	version  string
	server   *http.Server
	hub      *Hub
	tickets  *ticketStore
	cancel   context.CancelFunc // cancels background goroutines on Close()
	started  time.Time
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, repositories, engine)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Places == nil || deps.Live == nil || deps.History == nil {
		return nil, fmt.Errorf("place, live, and history repositories are required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("analysis engine is required")
	}
	// MQTT and InfluxDB are optional; occupancy fan-out degrades gracefully.

	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		mediaCfg: deps.Media,
		secCfg:   deps.Security,
		logger:   deps.Logger,
		db:       deps.DB,
		places:   deps.Places,
		liveRepo: deps.Live,
		histRepo: deps.History,
		users:    deps.Users,
		engine:   deps.Engine,
		mqtt:     deps.MQTT,
		influx:   deps.Influx,
		version:  deps.Version,
		tickets:  newTicketStore(),
	}, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the
// HTTP listener in a background goroutine. The server can be stopped
// with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	s.started = time.Now()

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	// Start periodic ticket cleanup to prevent memory leaks
	go s.cleanTicketsLoop(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	// Start listening in background
	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub, ticket cleanup)
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
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
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
