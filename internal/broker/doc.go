// Package broker publishes Home Assistant discovery, state and availability
// messages for one machine and relays inbound command messages as actions.
//
// The client sits on top of the infrastructure MQTT client. When no broker
// host is configured it runs in a disabled mode where every operation is a
// silent success, so the bridge can run without MQTT.
//
// Failure policy:
//   - discovery publish and removal errors are returned to the caller
//   - state and availability publishes are best effort; errors are logged
//
// Usage:
//
//	c, err := broker.New(broker.Options{Config: cfg.MQTT, Machine: "OFFICE-PC"})
//	if err != nil { ... }
//	if err := c.Start(ctx); err != nil { ... }
//	defer c.Stop(ctx)
//
//	c.OnAction(func(a broker.Action) { ... })
//	if err := c.PublishDiscovery(ctx, stateRecord); err != nil { ... }
//	c.SendUpdates(stateRecord, stateRecord.Values(state))
package broker
