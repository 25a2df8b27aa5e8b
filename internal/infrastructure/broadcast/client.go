package broadcast

import (
	"sync"

	"go.uber.org/zap"
)

// Client is one subscribed connection with its own ordered send queue
type Client struct {
	hub    *Hub
	roomID string
	addr   string
	conn   Conn
	queue  chan []byte
	done   chan struct{}
	once   sync.Once
}

// RoomID returns the room the client is subscribed to
func (c *Client) RoomID() string {
	return c.roomID
}

// Done is closed once the client has been removed from the hub
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Send queues a message for this client only. It returns false if the client
// is gone, its queue is full, or payload is empty.
func (c *Client) Send(payload []byte) bool {
	if len(payload) == 0 {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	return c.enqueue(payload)
}

func (c *Client) enqueue(payload []byte) bool {
	select {
	case c.queue <- payload:
		return true
	default:
		return false
	}
}

// writeLoop drains the queue in order. The first failed write removes the client.
func (c *Client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.queue:
			if msg == nil {
				c.hub.remove(c, CloseNormal, "room closed")
				return
			}
			if err := c.conn.WriteMessage(msg); err != nil {
				c.hub.metrics.DeliveryFailed()
				c.hub.logger.Warn("broadcast.deliver.failed",
					zap.String("room_id", c.roomID),
					zap.String("remote_addr", c.addr),
					zap.Error(err),
				)
				c.hub.remove(c, CloseInternalError, "write failed")
				return
			}
		}
	}
}
