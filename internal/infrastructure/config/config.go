package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Teams2Mqtt.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Teams         TeamsConfig          `yaml:"teams"`
	MQTT          MQTTConfig           `yaml:"mqtt"`
	Localizations []LocalizationConfig `yaml:"localizations"`
	TokenCache    TokenCacheConfig     `yaml:"token_cache"`
	InfluxDB      InfluxDBConfig       `yaml:"influxdb"`
	API           APIConfig            `yaml:"api"`
	Logging       LoggingConfig        `yaml:"logging"`
}

// TeamsConfig contains settings for the local conferencing websocket API.
type TeamsConfig struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`

	// ReconnectInterval is how often (seconds) a dropped connection is retried.
	ReconnectInterval int `yaml:"reconnect_interval"`

	// RefreshInterval is how often (seconds) a full meeting status is requested.
	RefreshInterval int `yaml:"refresh_interval"`

	Manufacturer string `yaml:"manufacturer"`

	// DeviceName identifies this machine to the API and in MQTT topics.
	// Defaults to the host name.
	DeviceName string `yaml:"device_name"`
}

// MQTTConfig contains MQTT broker connection and discovery settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	DiscoveryPrefix         string `yaml:"discovery_prefix"`
	RemoveDevicesOnShutdown bool   `yaml:"remove_devices_on_shutdown"`
	SuggestedArea           string `yaml:"suggested_area"`

	// LoggingEnabled routes the MQTT library's internal logs to the application logger.
	LoggingEnabled bool `yaml:"logging_enabled"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
// An empty Host disables the broker client.
type MQTTBrokerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	TLS  bool   `yaml:"tls"`

	// Transport is "tcp" or "websocket".
	Transport string `yaml:"transport"`

	// Path is the HTTP path used by the websocket transport.
	Path string `yaml:"path"`

	// ClientID defaults to teams2mqtt-<device>-<random> when empty.
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// LocalizationConfig overrides the display name of one discovery component.
type LocalizationConfig struct {
	ComponentID string `yaml:"component_id"`
	Name        string `yaml:"name"`
}

// TokenCacheConfig contains settings for the encrypted token file.
type TokenCacheConfig struct {
	Path string `yaml:"path"`

	// Secret is mixed into the key derivation in addition to the machine identity.
	Secret string `yaml:"secret"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the local status HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TEAMS2MQTT_SECTION_KEY
// For example: TEAMS2MQTT_TEAMS_TOKEN, TEAMS2MQTT_MQTT_HOST
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Teams: TeamsConfig{
			Host:              "localhost",
			Port:              8124,
			ReconnectInterval: 10,
			RefreshInterval:   30,
			Manufacturer:      "lafe",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Port:      1883,
				Transport: "tcp",
				Path:      "/mqtt",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			DiscoveryPrefix: "homeassistant",
		},
		TokenCache: TokenCacheConfig{
			Path: defaultTokenCachePath(),
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "teams2mqtt",
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8125,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// defaultTokenCachePath places the token file in the user's config directory,
// falling back to the working directory.
func defaultTokenCachePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "TokenCache.dat"
	}
	return dir + string(os.PathSeparator) + "teams2mqtt" + string(os.PathSeparator) + "TokenCache.dat"
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: TEAMS2MQTT_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Teams
	if v := os.Getenv("TEAMS2MQTT_TEAMS_HOST"); v != "" {
		cfg.Teams.Host = v
	}
	if v := os.Getenv("TEAMS2MQTT_TEAMS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Teams.Port = port
		}
	}
	if v := os.Getenv("TEAMS2MQTT_TEAMS_TOKEN"); v != "" {
		cfg.Teams.Token = v
	}
	if v := os.Getenv("TEAMS2MQTT_DEVICE_NAME"); v != "" {
		cfg.Teams.DeviceName = v
	}

	// MQTT
	if v := os.Getenv("TEAMS2MQTT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("TEAMS2MQTT_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("TEAMS2MQTT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("TEAMS2MQTT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Token cache
	if v := os.Getenv("TEAMS2MQTT_TOKEN_CACHE_SECRET"); v != "" {
		cfg.TokenCache.Secret = v
	}

	// InfluxDB
	if v := os.Getenv("TEAMS2MQTT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("TEAMS2MQTT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Teams validation
	if c.Teams.Host == "" {
		errs = append(errs, "teams.host is required")
	}
	if c.Teams.Port < 1 || c.Teams.Port > 65535 {
		errs = append(errs, "teams.port must be between 1 and 65535")
	}
	if c.Teams.ReconnectInterval < 1 {
		errs = append(errs, "teams.reconnect_interval must be at least 1 second")
	}
	if c.Teams.RefreshInterval < 1 {
		errs = append(errs, "teams.refresh_interval must be at least 1 second")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.Host != "" && (c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535) {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	switch strings.ToLower(c.MQTT.Broker.Transport) {
	case "", "tcp", "websocket":
	default:
		errs = append(errs, "mqtt.broker.transport must be tcp or websocket")
	}
	if c.MQTT.DiscoveryPrefix == "" {
		errs = append(errs, "mqtt.discovery_prefix is required")
	}

	// Localization validation
	seen := make(map[string]bool, len(c.Localizations))
	for i, l := range c.Localizations {
		if l.ComponentID == "" {
			errs = append(errs, fmt.Sprintf("localizations[%d].component_id is required", i))
			continue
		}
		if seen[l.ComponentID] {
			errs = append(errs, fmt.Sprintf("localizations[%d].component_id %q is duplicated", i, l.ComponentID))
		}
		seen[l.ComponentID] = true
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// LocalizationMap returns the localization overrides keyed by component id.
func (c *Config) LocalizationMap() map[string]string {
	m := make(map[string]string, len(c.Localizations))
	for _, l := range c.Localizations {
		m[l.ComponentID] = l.Name
	}
	return m
}

// GetReconnectInterval returns the upstream reconnect interval as a Duration.
func (c *Config) GetReconnectInterval() time.Duration {
	return time.Duration(c.Teams.ReconnectInterval) * time.Second
}

// GetRefreshInterval returns the meeting status refresh interval as a Duration.
func (c *Config) GetRefreshInterval() time.Duration {
	return time.Duration(c.Teams.RefreshInterval) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
