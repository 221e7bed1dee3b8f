// Package mqtt provides MQTT broker connectivity for Teams2Mqtt.
//
// This package manages:
//   - Connection over TCP, TLS or websocket with auto-reconnect
//   - A retained Last Will on a caller-supplied availability topic
//   - Message publishing, either awaited or fire-and-forget
//   - Topic subscriptions restored after every reconnect
//
// It knows nothing about Home Assistant discovery; the broker package
// builds on it for that.
//
// # Transports
//
//	mqtt:
//	  broker:
//	    host: "broker.local"
//	    port: 1883
//	    transport: "tcp"        # tcp -> tcp:// or ssl://
//	                            # websocket -> ws:// or wss://
//	    path: "/mqtt"           # websocket only
//	    tls: false
//
// # Security Considerations
//
//   - Credentials are sent in the CONNECT packet; enable TLS on untrusted networks
//   - TLS connections require at least TLS 1.2
package mqtt
