package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// closeWriteWait bounds how long a close frame may take to write.
const closeWriteWait = time.Second

// WSConn adapts a gorilla WebSocket to Conn. gorilla allows one
// concurrent writer, so every write takes writeMu.
type WSConn struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewWSConn wraps an upgraded connection.
func NewWSConn(conn *websocket.Conn) *WSConn {
	return &WSConn{conn: conn}
}

// Send writes data as one text frame, honouring ctx's deadline if it has one.
func (c *WSConn) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Ping writes a ping control frame.
func (c *WSConn) Ping(wait time.Duration) error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wait))
}

// Close sends a close frame and closes the underlying connection. Only the
// first call has any effect.
func (c *WSConn) Close(code int, reason string) error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(code, reason)
		//nolint:errcheck // peer may already be gone
		c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// ReadUntilClosed reads and discards incoming frames until the peer goes
// away or a read fails. readTimeout, if positive, is the idle limit; any
// frame or pong extends it.
func (c *WSConn) ReadUntilClosed(maxMessageSize int64, readTimeout time.Duration) error {
	if maxMessageSize > 0 {
		c.conn.SetReadLimit(maxMessageSize)
	}

	extend := func() error {
		if readTimeout <= 0 {
			return nil
		}
		return c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	}
	if err := extend(); err != nil {
		return err
	}
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if err := extend(); err != nil {
			return err
		}
	}
}
