package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gardencore/internal/realtime"
)

// credentialParam is the query parameter carrying "Bearer <token>".
const credentialParam = "authorization"

// Default keepalive settings when the config leaves them unset.
const (
	defaultPingInterval = 30 * time.Second
	defaultPongTimeout  = 10 * time.Second
)

// upgrader configures the WebSocket upgrader. Origins are checked against
// the CORS allow list in handleWebSocket.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleWebSocket upgrades the request, authenticates the credential from
// the query string and keeps the socket registered on the hub until the
// peer goes away. Incoming frames are read and discarded.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	up := upgrader
	up.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || s.isAllowedOrigin(origin)
	}

	raw, err := up.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		s.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}
	conn := realtime.NewWSConn(raw)

	subject, ok := s.hub.AuthenticateAndConnect(r.Context(), conn, r.URL.Query().Get(credentialParam))
	if !ok {
		return
	}
	defer s.hub.Disconnect(subject, conn)

	s.logger.Info("websocket connected", "subject", subject.String(), "remote", r.RemoteAddr)

	pingInterval := secondsOr(s.wsCfg.PingInterval, defaultPingInterval)
	pongTimeout := secondsOr(s.wsCfg.PongTimeout, defaultPongTimeout)

	done := make(chan struct{})
	defer close(done)
	go s.pingLoop(conn, pingInterval, pongTimeout, done)

	err = conn.ReadUntilClosed(int64(s.wsCfg.MaxMessageSize), pingInterval+pongTimeout)
	if err != nil {
		s.logger.Debug("websocket read ended", "subject", subject.String(), "error", err)
	}
	//nolint:errcheck // peer is gone or going
	conn.Close(websocket.CloseNormalClosure, "")

	s.logger.Info("websocket disconnected", "subject", subject.String())
}

// pingLoop keeps the read deadline alive on idle sockets.
func (s *Server) pingLoop(conn *realtime.WSConn, interval, wait time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.Ping(wait); err != nil {
				return
			}
		}
	}
}

func secondsOr(n int, def time.Duration) time.Duration {
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
