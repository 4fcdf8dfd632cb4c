// Scoreline Core - Live Sports LED Orchestration
//
// This is the main entry point for the Scoreline Core application.
// Scoreline turns WLED LED strips into live win-probability displays:
//   - Polls public scoreboards and per-game win probability
//   - Renders a tug-of-war battle layout onto each configured strip
//   - Runs configurable post-game celebrations
//   - Exposes a REST API, WebSocket stream, and MQTT events
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/scoreline-core/internal/api"
	"github.com/nerrad567/scoreline-core/internal/history"
	"github.com/nerrad567/scoreline-core/internal/infrastructure/config"
	"github.com/nerrad567/scoreline-core/internal/infrastructure/database"
	"github.com/nerrad567/scoreline-core/internal/infrastructure/logging"
	"github.com/nerrad567/scoreline-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/scoreline-core/internal/infrastructure/tsdb"
	"github.com/nerrad567/scoreline-core/internal/orchestrator"
	"github.com/nerrad567/scoreline-core/internal/scorefeed"
	"github.com/nerrad567/scoreline-core/internal/teams"
	"github.com/nerrad567/scoreline-core/internal/wled"
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
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Scoreline Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration through the store so API mutations and file
	// watching share one snapshot.
	configPath := getConfigPath()
	store, err := config.NewStore(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := store.Get()
	log.Info("configuration loaded",
		"path", configPath,
		"devices", len(cfg.Devices),
		"leagues", len(cfg.Leagues),
	)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	store.SetLogger(log)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the history database (optional)
	var historyRepo *history.SQLiteRepository
	var historyDB *database.DB
	if cfg.History.Enabled {
		historyDB, err = database.Open(database.Config{
			Path:        cfg.History.Path,
			WALMode:     cfg.History.WALMode,
			BusyTimeout: cfg.History.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer func() {
			log.Info("closing history database")
			if closeErr := historyDB.Close(); closeErr != nil {
				log.Error("error closing history database", "error", closeErr)
			}
		}()

		historyRepo, err = history.NewSQLiteRepository(historyDB)
		if err != nil {
			return fmt.Errorf("initialising game history: %w", err)
		}
		log.Info("game history enabled", "path", historyDB.Path())
	} else {
		log.Info("game history disabled")
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Host, cfg.MQTT.Port),
			"client_id", cfg.MQTT.ClientID,
		)

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
	var influxClient *tsdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = tsdb.Connect(cfg.InfluxDB)
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

	// Score feed and team directory
	feed := scorefeed.New(cfg.Feed)
	feed.SetLogger(log)
	directory := teams.NewDirectory(store)

	// WebSocket hub is created up front so the orchestrator's event sink
	// can broadcast to it; the API server adopts it via ExternalHub.
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	sink := &eventSink{hub: hub, mqtt: mqttClient, log: log}

	// Orchestrator
	orchDeps := orchestrator.Deps{
		Config: store,
		Feed:   feed,
		Links: func(host string) orchestrator.DeviceLink {
			return wled.NewClient(host)
		},
		Colors: directory,
		Events: sink,
		Logger: log,
	}
	if influxClient != nil {
		orchDeps.Sampler = influxClient
	}
	if historyRepo != nil {
		orchDeps.History = historyRepo
	}
	orch, err := orchestrator.New(orchDeps)
	if err != nil {
		return fmt.Errorf("creating orchestrator: %w", err)
	}
	defer func() {
		log.Info("stopping orchestrator")
		orch.Close()
	}()

	// Watch the config file for out-of-band edits
	go func() {
		if watchErr := store.WatchFile(ctx); watchErr != nil {
			log.Warn("config file watcher stopped", "error", watchErr)
		}
	}()

	// Start the polling loops
	go orch.Run(ctx)

	// API server
	server, err := api.New(api.Deps{
		Config:       store,
		Orchestrator: orch,
		Teams:        directory,
		Feed:         feed,
		History:      historyRepoOrNil(historyRepo),
		Logger:       log,
		ExternalHub:  hub,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, server, historyDB, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Orchestrator
	// 3. InfluxDB (if enabled)
	// 4. MQTT (if enabled)
	// 5. History database (if enabled)

	log.Info("Scoreline Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SCORELINE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SCORELINE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// historyRepoOrNil keeps the api.Deps interface field nil when history is
// disabled, so the handler can short-circuit instead of hitting a nil repo
// through a non-nil interface.
func historyRepoOrNil(repo *history.SQLiteRepository) api.GameHistory {
	if repo == nil {
		return nil
	}
	return repo
}

// healthCheck verifies all infrastructure connections are healthy.
// Optional components that are disabled pass vacuously.
func healthCheck(ctx context.Context, server *api.Server, db *database.DB, mqttClient *mqtt.Client, influxClient *tsdb.Client) error {
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("history database: %w", err)
		}
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// eventSink fans orchestrator events out to the WebSocket hub and, when
// configured, the MQTT broker. Implements orchestrator.EventSink.
type eventSink struct {
	hub  *api.Hub
	mqtt *mqtt.Client
	log  *logging.Logger
}

// wsChannel maps an event type to its WebSocket broadcast channel.
func wsChannel(eventType string) string {
	switch eventType {
	case mqtt.EventGameUpdate:
		return api.ChannelGameUpdate
	case mqtt.EventGameFinal:
		return api.ChannelGameFinal
	case mqtt.EventWatchStarted, mqtt.EventWatchStopped:
		return api.ChannelWatch
	case mqtt.EventSimulation:
		return api.ChannelSimulation
	default:
		return eventType
	}
}

// Event implements orchestrator.EventSink.
func (s *eventSink) Event(eventType string, payload any) {
	s.hub.Broadcast(wsChannel(eventType), payload)

	if s.mqtt != nil {
		topic := mqtt.Topics{}.Event(eventType)
		if err := s.mqtt.PublishJSON(topic, payload); err != nil {
			s.log.Debug("mqtt event publish failed", "topic", topic, "error", err)
		}
	}
}

// DeviceState implements orchestrator.EventSink.
func (s *eventSink) DeviceState(host string, status orchestrator.DeviceStatus) {
	s.hub.Broadcast(api.ChannelDeviceState, status)

	if s.mqtt != nil {
		topic := mqtt.Topics{}.DeviceState(host)
		if err := s.mqtt.PublishRetainedJSON(topic, status); err != nil {
			s.log.Debug("mqtt state publish failed", "topic", topic, "error", err)
		}
	}
}
