package realtime

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// WebSocket close codes used by the hub.
const (
	ClosePolicyViolation = 1008
	CloseGoingAway       = 1001
)

// Conn is one live realtime connection. *WSConn implements it.
type Conn interface {
	// Send writes one text frame.
	Send(ctx context.Context, data []byte) error

	// Close sends a close frame with code and reason, then closes the transport.
	Close(code int, reason string) error
}

// Authenticator resolves a bearer token to the subject it was issued for.
// *auth.JWTVerifier implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Subject, error)
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Hub tracks live connections per subject and fans events out to them.
//
// A subject may hold any number of connections (several browser tabs, a
// reconnecting agent). An entry exists only while it has at least one
// connection.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - The hub lock only guards the connection map; sends happen after the
//     lock is released, so a slow connection never blocks Connect or
//     Disconnect.
type Hub struct {
	auth   Authenticator
	logger Logger

	mu     sync.Mutex
	conns  map[Subject]map[Conn]struct{}
	closed bool
}

// NewHub creates a Hub that resolves credentials with auth.
func NewHub(auth Authenticator) *Hub {
	return &Hub{
		auth:   auth,
		logger: noopLogger{},
		conns:  make(map[Subject]map[Conn]struct{}),
	}
}

// SetLogger sets the logger for connection events.
func (h *Hub) SetLogger(logger Logger) {
	h.logger = logger
}

// AuthenticateAndConnect resolves credential ("Bearer <token>") and
// registers conn under the resulting subject.
//
// Any failure closes conn with ClosePolicyViolation and returns false;
// the error never reaches other connections.
func (h *Hub) AuthenticateAndConnect(ctx context.Context, conn Conn, credential string) (Subject, bool) {
	subject, err := h.authenticate(ctx, credential)
	if err == nil {
		err = h.Connect(subject, conn)
	}
	if err != nil {
		h.logger.Warn("realtime connection rejected", "error", err)
		if cerr := conn.Close(ClosePolicyViolation, "authentication failed"); cerr != nil {
			h.logger.Debug("closing rejected connection", "error", cerr)
		}
		return Subject{}, false
	}
	return subject, true
}

func (h *Hub) authenticate(ctx context.Context, credential string) (Subject, error) {
	token, ok := BearerToken(credential)
	if !ok {
		return Subject{}, ErrMissingCredential
	}

	subject, err := h.auth.Authenticate(ctx, token)
	if err != nil {
		return Subject{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if err := subject.Validate(); err != nil {
		return Subject{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return subject, nil
}

// BearerToken extracts the token from "Bearer <token>". The scheme is
// matched case-insensitively.
func BearerToken(credential string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(credential), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Connect registers conn under subject.
func (h *Hub) Connect(subject Subject, conn Conn) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	set, ok := h.conns[subject]
	if !ok {
		set = make(map[Conn]struct{})
		h.conns[subject] = set
	}
	set[conn] = struct{}{}
	n := len(set)
	h.mu.Unlock()

	h.logger.Info("realtime connected", "subject", subject.String(), "connections", n)
	return nil
}

// Disconnect removes conn from subject. Unknown pairs are ignored.
func (h *Hub) Disconnect(subject Subject, conn Conn) {
	h.mu.Lock()
	set, ok := h.conns[subject]
	if ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, subject)
		}
	}
	h.mu.Unlock()

	if ok {
		h.logger.Info("realtime disconnected", "subject", subject.String())
	}
}

// SendToSubject JSON-encodes data and sends it to every connection of
// subject. A connection whose send fails is disconnected; the remaining
// connections still receive the event.
//
// Returns:
//   - error: only if data cannot be encoded
func (h *Hub) SendToSubject(ctx context.Context, subject Subject, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding realtime event: %w", err)
	}

	h.mu.Lock()
	targets := make([]Conn, 0, len(h.conns[subject]))
	for c := range h.conns[subject] {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		h.logger.Debug("no realtime connections", "subject", subject.String())
		return nil
	}

	for _, c := range targets {
		if err := c.Send(ctx, payload); err != nil {
			h.logger.Warn("realtime send failed", "subject", subject.String(), "error", err)
			h.Disconnect(subject, c)
		}
	}
	return nil
}

// SendToUser sends data to every connection of a user.
func (h *Hub) SendToUser(ctx context.Context, userID int64, data any) error {
	return h.SendToSubject(ctx, User(userID), data)
}

// SendToAgent sends data to every connection of an agent.
func (h *Hub) SendToAgent(ctx context.Context, agentID int64, data any) error {
	return h.SendToSubject(ctx, Agent(agentID), data)
}

// ConnectionCount returns the number of live connections for subject.
func (h *Hub) ConnectionCount(subject Subject) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[subject])
}

// SubjectCount returns the number of subjects with at least one connection.
func (h *Hub) SubjectCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close closes every connection with CloseGoingAway and rejects further
// connections. It is safe to call more than once.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	all := h.conns
	h.conns = make(map[Subject]map[Conn]struct{})
	h.mu.Unlock()

	for _, set := range all {
		for c := range set {
			if err := c.Close(CloseGoingAway, "server shutting down"); err != nil {
				h.logger.Debug("closing realtime connection", "error", err)
			}
		}
	}
}
