// Package server exposes the bridge over a local HTTP API for LAN
// consumers: snapshot reads, update batches, forced refreshes, and a
// websocket stream of poll-cycle results.
package server
