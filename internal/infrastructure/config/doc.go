// Package config handles loading and validating Teams2Mqtt configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - The conferencing API token and MQTT password should be set via
//     environment variables (TEAMS2MQTT_TEAMS_TOKEN, TEAMS2MQTT_MQTT_PASSWORD)
//   - The config file should have restricted permissions (0600)
//
// An empty mqtt.broker.host is not an error: the broker client runs in a
// disabled no-op mode.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Teams.Host, cfg.GetReconnectInterval())
package config
