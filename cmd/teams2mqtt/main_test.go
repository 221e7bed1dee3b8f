package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

// closedPort returns a local port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("TEAMS2MQTT_CONFIG", "")

	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	t.Setenv("TEAMS2MQTT_CONFIG", "/etc/teams2mqtt/config.yaml")

	if got := getConfigPath(); got != "/etc/teams2mqtt/config.yaml" {
		t.Errorf("getConfigPath() = %q", got)
	}
}

func TestDeviceName(t *testing.T) {
	if got := deviceName("OFFICE-PC"); got != "OFFICE-PC" {
		t.Errorf("deviceName(configured) = %q", got)
	}
	if got := deviceName(""); got == "" {
		t.Error("deviceName(\"\") is empty")
	}
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("TEAMS2MQTT_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_InvalidQoS(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  qos: 5
`)
	t.Setenv("TEAMS2MQTT_CONFIG", path)

	if err := run(context.Background()); err == nil {
		t.Fatal("run() should fail for qos 5")
	}
}

// TestRun_BrokerUnreachable verifies a configured but unreachable broker
// aborts startup.
func TestRun_BrokerUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the MQTT connect timeout")
	}
	dir := t.TempDir()
	path := writeConfig(t, `
teams:
  host: "127.0.0.1"
  port: `+strconv.Itoa(closedPort(t))+`
  device_name: "test-pc"
mqtt:
  broker:
    host: "127.0.0.1"
    port: `+strconv.Itoa(closedPort(t))+`
  reconnect:
    initial_delay: 1
    max_delay: 1
token_cache:
  path: "`+filepath.Join(dir, "TokenCache.dat")+`"
logging:
  level: error
  format: text
`)
	t.Setenv("TEAMS2MQTT_CONFIG", path)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail when the broker is unreachable")
	}
}

// TestRun_SuccessfulStartupAndShutdown runs with the broker disabled and the
// API unreachable. Neither prevents startup.
func TestRun_SuccessfulStartupAndShutdown(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
teams:
  host: "127.0.0.1"
  port: `+strconv.Itoa(closedPort(t))+`
  token: "configured-token"
  device_name: "test-pc"
token_cache:
  path: "`+filepath.Join(dir, "TokenCache.dat")+`"
logging:
  level: error
  format: text
`)
	t.Setenv("TEAMS2MQTT_CONFIG", path)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
	case <-time.After(20 * time.Second):
		t.Fatal("run() did not return after cancellation")
	}
}

// TestRun_WithAPI verifies the status API is served while running.
func TestRun_WithAPI(t *testing.T) {
	dir := t.TempDir()
	apiPort := closedPort(t)
	path := writeConfig(t, `
teams:
  host: "127.0.0.1"
  port: `+strconv.Itoa(closedPort(t))+`
  device_name: "test-pc"
token_cache:
  path: "`+filepath.Join(dir, "TokenCache.dat")+`"
api:
  enabled: true
  host: "127.0.0.1"
  port: `+strconv.Itoa(apiPort)+`
logging:
  level: error
  format: text
`)
	t.Setenv("TEAMS2MQTT_CONFIG", path)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx) }()

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(apiPort))
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("API did not start: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("run() error = %v", err)
	}
}
