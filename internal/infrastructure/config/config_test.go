package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
teams:
  host: "127.0.0.1"
  port: 8124
  token: "file-token"
  reconnect_interval: 5
  device_name: "OFFICE-PC"
mqtt:
  broker:
    host: "broker.local"
    port: 1883
  qos: 1
  discovery_prefix: "ha"
  remove_devices_on_shutdown: true
  suggested_area: "Office"
localizations:
  - component_id: "is_muted"
    name: "Stummgeschaltet"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Teams.Host != "127.0.0.1" {
		t.Errorf("Teams.Host = %q, want %q", cfg.Teams.Host, "127.0.0.1")
	}
	if cfg.Teams.Token != "file-token" {
		t.Errorf("Teams.Token = %q, want %q", cfg.Teams.Token, "file-token")
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.MQTT.DiscoveryPrefix != "ha" {
		t.Errorf("MQTT.DiscoveryPrefix = %q, want %q", cfg.MQTT.DiscoveryPrefix, "ha")
	}
	if !cfg.MQTT.RemoveDevicesOnShutdown {
		t.Error("MQTT.RemoveDevicesOnShutdown = false, want true")
	}

	// Unset values keep their defaults
	if cfg.Teams.RefreshInterval != 30 {
		t.Errorf("Teams.RefreshInterval = %d, want 30", cfg.Teams.RefreshInterval)
	}
	if cfg.MQTT.Broker.Transport != "tcp" {
		t.Errorf("MQTT.Broker.Transport = %q, want %q", cfg.MQTT.Broker.Transport, "tcp")
	}

	if got := cfg.LocalizationMap()["is_muted"]; got != "Stummgeschaltet" {
		t.Errorf("LocalizationMap()[is_muted] = %q, want %q", got, "Stummgeschaltet")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
teams:
  port: 0
mqtt:
  qos: 5
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}

	// All failures are reported together
	for _, want := range []string{"teams.port", "mqtt.qos"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Load() error = %v, want mention of %s", err, want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			modify:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "empty broker host is valid",
			modify:  func(c *Config) { c.MQTT.Broker.Host = "" },
			wantErr: false,
		},
		{
			name:    "missing teams host",
			modify:  func(c *Config) { c.Teams.Host = "" },
			wantErr: true,
		},
		{
			name:    "invalid teams port",
			modify:  func(c *Config) { c.Teams.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "zero reconnect interval",
			modify:  func(c *Config) { c.Teams.ReconnectInterval = 0 },
			wantErr: true,
		},
		{
			name:    "zero refresh interval",
			modify:  func(c *Config) { c.Teams.RefreshInterval = 0 },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			modify:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name: "invalid broker port",
			modify: func(c *Config) {
				c.MQTT.Broker.Host = "broker"
				c.MQTT.Broker.Port = 0
			},
			wantErr: true,
		},
		{
			name:    "unknown transport",
			modify:  func(c *Config) { c.MQTT.Broker.Transport = "quic" },
			wantErr: true,
		},
		{
			name:    "websocket transport",
			modify:  func(c *Config) { c.MQTT.Broker.Transport = "websocket" },
			wantErr: false,
		},
		{
			name:    "missing discovery prefix",
			modify:  func(c *Config) { c.MQTT.DiscoveryPrefix = "" },
			wantErr: true,
		},
		{
			name: "duplicate localization",
			modify: func(c *Config) {
				c.Localizations = []LocalizationConfig{
					{ComponentID: "is_muted", Name: "a"},
					{ComponentID: "is_muted", Name: "b"},
				}
			},
			wantErr: true,
		},
		{
			name: "localization without component id",
			modify: func(c *Config) {
				c.Localizations = []LocalizationConfig{{Name: "a"}}
			},
			wantErr: true,
		},
		{
			name:    "influxdb enabled without url",
			modify:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: true,
		},
		{
			name: "api enabled with invalid port",
			modify: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetIntervals(t *testing.T) {
	cfg := &Config{
		Teams: TeamsConfig{
			ReconnectInterval: 10,
			RefreshInterval:   30,
		},
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  5,
				Write: 15,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReconnectInterval().Seconds(); got != 10 {
		t.Errorf("GetReconnectInterval() = %v, want 10", got)
	}
	if got := cfg.GetRefreshInterval().Seconds(); got != 30 {
		t.Errorf("GetRefreshInterval() = %v, want 30", got)
	}
	if got := cfg.GetReadTimeout().Seconds(); got != 5 {
		t.Errorf("GetReadTimeout() = %v, want 5", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 15 {
		t.Errorf("GetWriteTimeout() = %v, want 15", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("TEAMS2MQTT_TEAMS_HOST", "10.0.0.5")
	t.Setenv("TEAMS2MQTT_TEAMS_PORT", "9000")
	t.Setenv("TEAMS2MQTT_TEAMS_TOKEN", "env-token")
	t.Setenv("TEAMS2MQTT_DEVICE_NAME", "LAPTOP")
	t.Setenv("TEAMS2MQTT_MQTT_HOST", "mqtt.example.com")
	t.Setenv("TEAMS2MQTT_MQTT_PORT", "8883")
	t.Setenv("TEAMS2MQTT_MQTT_USERNAME", "testuser")
	t.Setenv("TEAMS2MQTT_MQTT_PASSWORD", "testpass")
	t.Setenv("TEAMS2MQTT_TOKEN_CACHE_SECRET", "pepper")
	t.Setenv("TEAMS2MQTT_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("TEAMS2MQTT_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.Teams.Host != "10.0.0.5" {
		t.Errorf("Teams.Host = %q, want %q", cfg.Teams.Host, "10.0.0.5")
	}
	if cfg.Teams.Port != 9000 {
		t.Errorf("Teams.Port = %d, want 9000", cfg.Teams.Port)
	}
	if cfg.Teams.Token != "env-token" {
		t.Errorf("Teams.Token = %q, want %q", cfg.Teams.Token, "env-token")
	}
	if cfg.Teams.DeviceName != "LAPTOP" {
		t.Errorf("Teams.DeviceName = %q, want %q", cfg.Teams.DeviceName, "LAPTOP")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.TokenCache.Secret != "pepper" {
		t.Errorf("TokenCache.Secret = %q, want %q", cfg.TokenCache.Secret, "pepper")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestApplyEnvOverrides_InvalidPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("TEAMS2MQTT_TEAMS_PORT", "not-a-number")

	applyEnvOverrides(cfg)

	if cfg.Teams.Port != 8124 {
		t.Errorf("Teams.Port = %d, want 8124", cfg.Teams.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Teams.Port != 8124 {
		t.Errorf("defaultConfig Teams.Port = %d, want 8124", cfg.Teams.Port)
	}
	if cfg.Teams.ReconnectInterval != 10 {
		t.Errorf("defaultConfig Teams.ReconnectInterval = %d, want 10", cfg.Teams.ReconnectInterval)
	}
	if cfg.Teams.RefreshInterval != 30 {
		t.Errorf("defaultConfig Teams.RefreshInterval = %d, want 30", cfg.Teams.RefreshInterval)
	}
	if cfg.MQTT.Broker.Host != "" {
		t.Errorf("defaultConfig MQTT.Broker.Host = %q, want empty", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.DiscoveryPrefix != "homeassistant" {
		t.Errorf("defaultConfig MQTT.DiscoveryPrefix = %q, want homeassistant", cfg.MQTT.DiscoveryPrefix)
	}
	if cfg.TokenCache.Path == "" {
		t.Error("defaultConfig should have non-empty TokenCache.Path")
	}
}
