// Teams2Mqtt relays meeting state from the local conferencing API to MQTT.
//
// The state is published as Home Assistant discovery entities. Commands
// received on the switch command topics are forwarded back to the API.
//
// Configuration is read from configs/config.yaml or the file named by
// TEAMS2MQTT_CONFIG.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lafe/teams2mqtt/internal/api"
	"github.com/lafe/teams2mqtt/internal/bridge"
	"github.com/lafe/teams2mqtt/internal/broker"
	"github.com/lafe/teams2mqtt/internal/discovery"
	"github.com/lafe/teams2mqtt/internal/infrastructure/config"
	"github.com/lafe/teams2mqtt/internal/infrastructure/influxdb"
	"github.com/lafe/teams2mqtt/internal/infrastructure/logging"
	"github.com/lafe/teams2mqtt/internal/teams"
	"github.com/lafe/teams2mqtt/internal/tokencache"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"

	// shutdownTimeout bounds the whole shutdown sequence.
	shutdownTimeout = 15 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// It blocks until ctx is cancelled and returns nil on clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting teams2mqtt",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
	)

	device := deviceName(cfg.Teams.DeviceName)

	states, err := discovery.NewMeetingStateRecord(cfg.LocalizationMap())
	if err != nil {
		return fmt.Errorf("building meeting state record: %w", err)
	}
	permissions, err := discovery.NewMeetingPermissionsRecord(cfg.LocalizationMap())
	if err != nil {
		return fmt.Errorf("building meeting permissions record: %w", err)
	}

	tokens, err := tokencache.New(tokencache.Options{
		Path:     cfg.TokenCache.Path,
		Secret:   cfg.TokenCache.Secret,
		Fallback: cfg.Teams.Token,
		Logger:   log.Component("tokencache"),
	})
	if err != nil {
		return fmt.Errorf("creating token cache: %w", err)
	}
	if loadErr := tokens.Load(); loadErr != nil {
		log.Warn("token cache unreadable, using configured token", "path", tokens.Path(), "error", loadErr)
	}

	upstream, err := teams.NewClient(teams.Options{
		Host:              cfg.Teams.Host,
		Port:              cfg.Teams.Port,
		Tokens:            tokens,
		Manufacturer:      cfg.Teams.Manufacturer,
		Device:            device,
		AppVersion:        version,
		ReconnectInterval: cfg.GetReconnectInterval(),
		Logger:            log.Component("teams"),
	})
	if err != nil {
		return fmt.Errorf("creating teams client: %w", err)
	}

	mqttBroker, err := broker.New(broker.Options{
		Config:  cfg.MQTT,
		Machine: device,
		Version: version,
		Logger:  log.Component("broker"),
	})
	if err != nil {
		return fmt.Errorf("creating broker client: %w", err)
	}

	opts := bridge.Options{
		Upstream:        upstream,
		Broker:          mqttBroker,
		States:          states,
		Permissions:     permissions,
		RefreshInterval: cfg.GetRefreshInterval(),
		Tokens:          tokens,
		Logger:          log.Component("bridge"),
	}

	// Connect to InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(ctx, cfg.InfluxDB, device)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
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
		opts.Recorder = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	b, err := bridge.New(opts)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	if startErr := b.Start(ctx); startErr != nil {
		stopBridge(b, log)
		return fmt.Errorf("starting bridge: %w", startErr)
	}
	defer stopBridge(b, log)

	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log.Component("api"),
			Bridge:  b,
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if apiErr = server.Start(ctx); apiErr != nil {
			return fmt.Errorf("starting API server: %w", apiErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("initialisation complete, waiting for shutdown signal",
		"device", device,
		"broker_enabled", mqttBroker.Enabled(),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// stopBridge runs the bridge shutdown on a fresh context, since the run
// context is already cancelled by then.
func stopBridge(b *bridge.Bridge, log *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := b.Stop(ctx); err != nil {
		log.Error("errors during shutdown", "error", err)
		return
	}
	log.Info("teams2mqtt stopped")
}

// getConfigPath returns the configuration file path.
// Uses TEAMS2MQTT_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TEAMS2MQTT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// deviceName falls back to the host name when no device name is configured.
func deviceName(configured string) string {
	if configured != "" {
		return configured
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "teams2mqtt"
	}
	return host
}
