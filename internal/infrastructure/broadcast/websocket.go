package broadcast

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeGracePeriod = time.Second

// WebsocketConn adapts a gorilla websocket to Conn
type WebsocketConn struct {
	ws           *websocket.Conn
	addr         string
	writeTimeout time.Duration
	closeOnce    sync.Once
	closeErr     error
}

var _ Conn = (*WebsocketConn)(nil)

// NewWebsocketConn wraps ws. addr is the client address used for the per-address cap.
func NewWebsocketConn(ws *websocket.Conn, addr string, writeTimeout time.Duration) *WebsocketConn {
	return &WebsocketConn{ws: ws, addr: addr, writeTimeout: writeTimeout}
}

// WriteMessage writes one text frame within the write timeout
func (c *WebsocketConn) WriteMessage(data []byte) error {
	if c.writeTimeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Ping sends a ping control frame. Safe to call concurrently with WriteMessage.
func (c *WebsocketConn) Ping() error {
	timeout := c.writeTimeout
	if timeout <= 0 {
		timeout = closeGracePeriod
	}
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout))
}

// Close sends a close frame with code and reason, then closes the socket. Only the first call has effect.
func (c *WebsocketConn) Close(code int, reason string) error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(code, reason)
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// RemoteAddr returns the client address
func (c *WebsocketConn) RemoteAddr() string {
	return c.addr
}

// Conn exposes the underlying websocket for the read side
func (c *WebsocketConn) Conn() *websocket.Conn {
	return c.ws
}
