// Package influxdb records meeting telemetry in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Every relayed
// meeting state or permissions snapshot becomes one point, so the history
// of mute, camera and meeting presence can be graphed next to other home
// telemetry.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, "OFFICE-PC")
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.RecordState("MeetingState", map[string]bool{"is_muted": true})
//
// # Error Handling
//
// Writes are non-blocking and batched. Write failures are delivered to the
// callback installed with SetOnError. Connection and health check errors
// are returned directly.
package influxdb
