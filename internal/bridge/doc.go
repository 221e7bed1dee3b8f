// Package bridge wires the conferencing API client to the MQTT broker client.
//
// The Bridge owns the startup and shutdown order of both sides:
//
//	Start: action handler, broker start, discovery for both record types,
//	       upstream event handlers, upstream connect, refresh timer
//	Stop:  refresh timer, action handler, discovery removal, broker stop,
//	       upstream event handlers, upstream close
//
// Upstream events are handed to a single worker goroutine so they are
// processed in arrival order without blocking the websocket receive loop.
// Inbound MQTT commands are dispatched synchronously on the MQTT callback
// goroutine; a failing or panicking action never reaches the MQTT client.
package bridge
