// itembridge - MQTT item bridge
//
// This is the main entry point for the itembridge daemon. It binds
// host-facing item abstractions (relays, contacts, buttons, events,
// variables, sensors) to MQTT topics through a shared connection
// multiplexer, persists item configuration and identity slots in
// SQLite, and exposes an admin REST API for item lifecycle management.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/itembridge/migrations"

	"github.com/nerrad567/itembridge/internal/api"
	"github.com/nerrad567/itembridge/internal/audit"
	"github.com/nerrad567/itembridge/internal/driver"
	"github.com/nerrad567/itembridge/internal/history"
	"github.com/nerrad567/itembridge/internal/identity"
	"github.com/nerrad567/itembridge/internal/infrastructure/config"
	"github.com/nerrad567/itembridge/internal/infrastructure/database"
	"github.com/nerrad567/itembridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/itembridge/internal/infrastructure/logging"
	"github.com/nerrad567/itembridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/itembridge/internal/mux"
	"github.com/nerrad567/itembridge/internal/store"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
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
	log.Info("starting itembridge",
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Load the persistent key/value store
	st := store.New(store.NewSQLiteRepository(db.DB))
	st.SetLogger(log)
	if loadErr := st.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading store: %w", loadErr)
	}
	log.Info("store loaded")

	// Identity registry over the same store
	ids := identity.NewRegistry(st, identity.NewMemoryHost())
	ids.SetLogger(log)

	// MQTT transport and connection multiplexer
	transport := mqtt.New(cfg.MQTT, cfg.Driver)
	transport.SetLogger(log)

	m := mux.New(transport, cfg.GetReconnectDelay())
	m.SetLogger(log)
	defer func() {
		log.Info("closing MQTT multiplexer")
		m.Close()
	}()

	// History mirror (optional, backed by InfluxDB)
	notifiers := driver.FanoutNotifier{driver.LogNotifier{Logger: log}}
	var mirror *history.Mirror
	if cfg.InfluxDB.Enabled {
		influxClient, connErr := influxdb.Connect(cfg.InfluxDB)
		if connErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", connErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		mirror = history.NewMirror(influxClient)
		notifiers = append(notifiers, mirror)
	} else {
		log.Info("InfluxDB disabled, history mirroring off")
	}

	// Item driver
	drv := driver.New(m, ids, st, notifiers)
	drv.SetLogger(log)
	defer func() {
		log.Info("closing item driver")
		drv.Close()
	}()
	if mirror != nil {
		mirror.SetResolver(drv)
	}

	if restoreErr := drv.Restore(ctx); restoreErr != nil {
		return fmt.Errorf("restoring items: %w", restoreErr)
	}
	log.Info("items restored", "count", len(drv.Snapshots()))

	// Start the broker connection. Failures here are not fatal: the
	// multiplexer keeps retrying on a fixed delay until Close.
	if startErr := m.Start(); startErr != nil {
		log.Warn("initial broker connection failed, retrying in background", "error", startErr)
	}
	log.Info("MQTT multiplexer started",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", transport.ClientID(),
	)

	// Admin REST API (optional)
	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:     cfg.API,
			Logger:     log,
			Driver:     drv,
			Audit:      audit.NewSQLiteRepository(db.DB),
			Version:    version,
			DefaultQoS: byte(cfg.MQTT.QoS),
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error stopping API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API server disabled")
	}

	log.Info("initialisation complete, waiting for shutdown signal",
		"status", drv.Status(),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Item driver
	// 3. InfluxDB (if enabled)
	// 4. MQTT multiplexer
	// 5. Database

	log.Info("itembridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ITEMBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ITEMBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
