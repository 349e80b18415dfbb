// Plugwise bridge for Gray Logic.
//
// Decodes raw Plugwise mesh fields relayed over MQTT by the stick transport
// into calibrated power, energy and climate readings, and encodes node
// configuration commands from Core.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	_ "github.com/nerrad567/gray-logic-plugwise/migrations"

	"github.com/nerrad567/gray-logic-plugwise/internal/bridges/plugwise"
	"github.com/nerrad567/gray-logic-plugwise/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-plugwise/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-plugwise/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-plugwise/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Plugwise bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(ctx, database.Config{
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
	log.Info("database connected", "path", db.Path())

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.With("component", "mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	if cfg.Plugwise.Enabled {
		bridge, startErr := startBridge(ctx, cfg, db, mqttClient, log)
		if startErr != nil {
			return fmt.Errorf("starting Plugwise bridge: %w", startErr)
		}
		defer func() {
			log.Info("stopping Plugwise bridge")
			bridge.Stop()
		}()
	} else {
		log.Info("Plugwise bridge disabled")
	}

	if err := healthCheck(ctx, db, mqttClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse: bridge, MQTT, database.
	return nil
}

// getConfigPath returns PLUGWISE_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("PLUGWISE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the infrastructure connections.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	return nil
}

// startBridge loads the bridge configuration and starts the bridge with
// SQLite-backed repositories.
func startBridge(ctx context.Context, cfg *config.Config, db *database.DB, mqttClient *mqtt.Client, log *logging.Logger) (*plugwise.Bridge, error) {
	bridgeCfg, err := plugwise.LoadConfig(cfg.Plugwise.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("loading bridge config: %w", err)
	}

	bridge, err := plugwise.NewBridge(plugwise.BridgeOptions{
		Config:       bridgeCfg,
		MQTTClient:   mqttClient,
		Calibrations: plugwise.NewSQLiteCalibrationRepository(db.DB),
		Nodes:        plugwise.NewSQLiteNodeRepository(db.DB),
		Location:     cfg.Location(),
		Version:      version,
		Logger:       log.With("component", "plugwise"),
	})
	if err != nil {
		return nil, err
	}

	if err := bridge.Start(ctx); err != nil {
		return nil, err
	}
	log.Info("Plugwise bridge started",
		"bridge_id", bridgeCfg.Bridge.ID,
		"config", cfg.Plugwise.ConfigFile,
	)
	return bridge, nil
}
