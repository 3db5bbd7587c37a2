package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/techposts/ambisense-bridge/internal/logging"
	"github.com/techposts/ambisense-bridge/internal/state"
)

const writeTimeout = 5 * time.Second

// handleWebsocket upgrades the connection and streams every new
// snapshot to the client until it disconnects. The current snapshot is
// sent immediately so clients don't wait a full poll interval for their
// first frame.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()

	logging.Debug("Websocket client connected",
		zap.String("remote_addr", conn.RemoteAddr().String()))

	_ = s.writeSnapshot(conn, s.bridge.Snapshot(), s.bridge.Available())

	// Read loop exists only to observe the close; inbound frames are ignored
	go func() {
		defer s.dropClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// broadcast pushes a snapshot to every connected websocket client.
// Registered as a bridge poll-cycle subscriber.
func (s *Server) broadcast(snap state.Snapshot, available bool) {
	s.clientsMu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.clientsMu.Unlock()

	for _, conn := range conns {
		if err := s.writeSnapshot(conn, snap, available); err != nil {
			logging.Debug("Dropping stalled websocket client",
				zap.String("remote_addr", conn.RemoteAddr().String()), zap.Error(err))
			s.dropClient(conn)
		}
	}
}

func (s *Server) writeSnapshot(conn *websocket.Conn, snap state.Snapshot, available bool) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(snapshotBody(snap, available))
}

func (s *Server) dropClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
	_ = conn.Close()
}
