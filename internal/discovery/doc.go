// Package discovery describes what Teams2Mqtt publishes to MQTT.
//
// It contains the topic builder, the static registry mapping meeting
// record fields to Home Assistant components, and the discovery config
// payloads built from them. Nothing in this package performs I/O.
//
// Topic layout:
//
//	<prefix>/<kind>/[<node>/]teams2mqtt-<machine>-<type>-<component>/config
//	teams2mqtt/sensor/<machine>-<type>/state
//	teams2mqtt/<machine>-<type>/<command>/set
//	teams2mqtt/<machine>/availability
//
// Every free-text segment passes through Sanitize, so no segment can
// contain an MQTT separator or wildcard.
package discovery
