// CrowdSight Core - Crowd Occupancy Estimation Platform
//
// This is the main entry point for the CrowdSight Core application.
// CrowdSight estimates venue occupancy from uploaded images and videos
// using lightweight pixel heuristics, and serves the results over a
// REST API, WebSocket events, and an MQTT occupancy feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/crowdsight/crowdsight-core/migrations"

	"github.com/crowdsight/crowdsight-core/internal/analysis"
	"github.com/crowdsight/crowdsight-core/internal/api"
	"github.com/crowdsight/crowdsight-core/internal/auth"
	"github.com/crowdsight/crowdsight-core/internal/history"
	"github.com/crowdsight/crowdsight-core/internal/infrastructure/config"
	"github.com/crowdsight/crowdsight-core/internal/infrastructure/database"
	"github.com/crowdsight/crowdsight-core/internal/infrastructure/influxdb"
	"github.com/crowdsight/crowdsight-core/internal/infrastructure/logging"
	"github.com/crowdsight/crowdsight-core/internal/infrastructure/mqtt"
	"github.com/crowdsight/crowdsight-core/internal/live"
	"github.com/crowdsight/crowdsight-core/internal/place"
	"github.com/crowdsight/crowdsight-core/internal/video"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting CrowdSight Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Domain repositories
	placeRepo := place.NewSQLiteRepository(db.DB)
	liveRepo := live.NewSQLiteRepository(db.DB)
	histRepo := history.NewSQLiteRepository(db.DB)
	userRepo := auth.NewUserRepository(db.DB)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			mqttClient.Close()
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Frame extractor: video analysis degrades gracefully without ffmpeg
	var extractor video.FrameExtractor
	ex, err := video.NewExtractor(log)
	switch {
	case err == nil:
		extractor = ex
		log.Info("ffmpeg found, video analysis enabled")
	case errors.Is(err, video.ErrFFmpegNotFound):
		log.Warn("ffmpeg not found in PATH, video analysis disabled")
	default:
		return fmt.Errorf("initialising frame extractor: %w", err)
	}

	// Analysis engine
	engine := analysis.NewEngine(placeRepo, liveRepo, histRepo, extractor,
		cfg.Analysis, cfg.Media.UploadDir, log)

	// API server
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Media:    cfg.Media,
		Security: cfg.Security,
		Logger:   log,
		DB:       db.DB,
		Places:   placeRepo,
		Live:     liveRepo,
		History:  histRepo,
		Users:    userRepo,
		Engine:   engine,
		MQTT:     mqttClient,
		Influx:   influxClient,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	log.Info("CrowdSight Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses CROWDSIGHT_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("CROWDSIGHT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheckTimeout bounds the startup health verification.
const healthCheckTimeout = 10 * time.Second

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := db.HealthCheck(checkCtx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(checkCtx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
