package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/techposts/ambisense-bridge/internal/bridge"
	"github.com/techposts/ambisense-bridge/internal/logging"
	"github.com/techposts/ambisense-bridge/internal/params"
	"github.com/techposts/ambisense-bridge/internal/state"
)

// Server exposes the bridge's consumer contract over a local HTTP API:
// cached snapshot reads, update batches, forced refreshes, and a
// websocket stream that pushes every new snapshot to connected clients.
type Server struct {
	bridge     *bridge.Bridge
	httpServer *http.Server
	upgrader   websocket.Upgrader

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]bool
}

// New creates a server for a bridge and subscribes to its poll cycles
// for the websocket broadcast.
func New(b *bridge.Bridge, listen string) *Server {
	s := &Server{
		bridge:  b,
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			// LAN-local API, same-origin policy is not useful here
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	s.httpServer = &http.Server{
		Addr:              listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	b.Subscribe(s.broadcast)
	return s
}

// Handler returns the API routes. Split out for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("POST /api/update", s.handleUpdate)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/apply-all", s.handleApplyAll)
	mux.HandleFunc("GET /api/ws", s.handleWebsocket)
	return mux
}

// ListenAndServe blocks serving the API until Shutdown.
func (s *Server) ListenAndServe() error {
	logging.Info("HTTP API listening", zap.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server and closes websocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.clientsMu.Unlock()

	return s.httpServer.Shutdown(ctx)
}

// snapshotBody renders a snapshot under semantic field names.
func snapshotBody(snap state.Snapshot, available bool) map[string]any {
	body := params.SemanticFields(snap.Settings)
	body["distance_cm"] = snap.DistanceCm
	body["light_mode_name"] = params.LightModeName(snap.Settings.LightMode)
	body["available"] = available
	return body
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, snapshotBody(s.bridge.Snapshot(), s.bridge.Available()))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed JSON body"})
		return
	}
	if len(fields) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "empty update batch"})
		return
	}

	result := s.bridge.ApplyUpdates(r.Context(), fields)
	writeJSON(w, http.StatusOK, updateResponse(result))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.bridge.Refresh(r.Context())
	if err != nil {
		// The previous snapshot stays visible; report it with availability false
		writeJSON(w, http.StatusOK, snapshotBody(snap, false))
		return
	}
	writeJSON(w, http.StatusOK, snapshotBody(snap, s.bridge.Available()))
}

func (s *Server) handleApplyAll(w http.ResponseWriter, r *http.Request) {
	result := s.bridge.ApplyAllSettings(r.Context())
	writeJSON(w, http.StatusOK, updateResponse(result))
}

func updateResponse(result bridge.UpdateResult) map[string]any {
	errors := make(map[string]string, len(result.FieldErrors))
	for field, err := range result.FieldErrors {
		errors[field] = err.Error()
	}
	return map[string]any{
		"success": result.Success,
		"errors":  errors,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Debug("Failed to encode API response", zap.Error(err))
	}
}
