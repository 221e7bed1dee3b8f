// Package api implements the optional local status API.
//
// It exposes the bridge state to local monitoring and lets scripts trigger
// the same actions MQTT commands do:
//
//	GET  /api/v1/health         liveness of both connections
//	GET  /api/v1/meeting        cached meeting state, permissions and counters
//	GET  /api/v1/commands       accepted command ids
//	POST /api/v1/commands/{id}  run one command against the conferencing API
//
// The server is disabled by default and binds to 127.0.0.1.
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
