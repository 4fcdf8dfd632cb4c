// Package api provides the HTTP REST API and WebSocket server for
// Scoreline Core.
//
// It exposes league and scoreboard browsing, device registry operations,
// watch and simulation control, finished-game history, and a WebSocket
// event stream for dashboards.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
