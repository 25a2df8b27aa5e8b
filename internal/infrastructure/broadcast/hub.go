package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/KiiTuNp/SUPERvote/internal/domain/events"
	"github.com/KiiTuNp/SUPERvote/pkg/metrics"
)

// Websocket close codes used by the hub
const (
	CloseNormal          = 1000
	CloseGoingAway       = 1001
	ClosePolicyViolation = 1008
	CloseInternalError   = 1011
)

const (
	DefaultMaxConnsPerAddr = 10
	DefaultQueueSize       = 64
)

var (
	// ErrConnectionLimit is returned when an address already holds the maximum number of connections
	ErrConnectionLimit = errors.New("too many connections from this address")
	// ErrHubClosed is returned by Subscribe after Close
	ErrHubClosed = errors.New("hub closed")
)

// Conn is one live outbound channel. WriteMessage may block; it is only ever
// called from the connection's own writer goroutine.
type Conn interface {
	WriteMessage(data []byte) error
	Close(code int, reason string) error
	RemoteAddr() string
}

// Options tune the hub
type Options struct {
	// MaxConnsPerAddr caps concurrent connections per remote address; 0 disables the cap
	MaxConnsPerAddr int
	// QueueSize bounds each connection's pending messages; a full queue drops the connection
	QueueSize int
}

// Hub keeps the live connections of every room and fans events out to them.
// Each room bucket has its own lock; the address counter has another. No lock
// is held while writing to a connection.
type Hub struct {
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	rooms  map[string]*roomBucket
	closed bool

	addrMu sync.Mutex
	addrs  map[string]int
}

type roomBucket struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	dead    bool
}

var _ events.Publisher = (*Hub)(nil)

// NewHub creates a hub
func NewHub(opts Options, logger *zap.Logger, m *metrics.Metrics) *Hub {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		opts:    opts,
		logger:  logger.Named("broadcast"),
		metrics: m,
		rooms:   make(map[string]*roomBucket),
		addrs:   make(map[string]int),
	}
}

// Subscribe registers conn under roomID and starts its writer. When the remote
// address is over the cap the connection is closed with ClosePolicyViolation and
// ErrConnectionLimit is returned; existing connections are never evicted.
func (h *Hub) Subscribe(roomID string, conn Conn) (*Client, error) {
	addr := conn.RemoteAddr()
	if !h.acquireAddr(addr) {
		h.metrics.ConnectionRejected()
		h.logger.Warn("broadcast.subscribe.rejected",
			zap.String("room_id", roomID),
			zap.String("remote_addr", addr),
		)
		_ = conn.Close(ClosePolicyViolation, "Too many connections from this IP")
		return nil, ErrConnectionLimit
	}

	c := &Client{
		hub:    h,
		roomID: roomID,
		addr:   addr,
		conn:   conn,
		queue:  make(chan []byte, h.opts.QueueSize),
		done:   make(chan struct{}),
	}

	for {
		b, err := h.bucket(roomID)
		if err != nil {
			h.releaseAddr(addr)
			_ = conn.Close(CloseGoingAway, "server shutting down")
			return nil, err
		}
		b.mu.Lock()
		if b.dead {
			// pruned between lookup and lock; fetch a fresh bucket
			b.mu.Unlock()
			continue
		}
		b.clients[c] = struct{}{}
		b.mu.Unlock()
		break
	}

	h.metrics.ConnectionOpened()
	h.logger.Info("broadcast.subscribe",
		zap.String("room_id", roomID),
		zap.String("remote_addr", addr),
	)

	go c.writeLoop()
	return c, nil
}

// Unsubscribe removes the client and closes its connection normally. Safe to call repeatedly.
func (h *Hub) Unsubscribe(c *Client) {
	if c == nil {
		return
	}
	h.remove(c, CloseNormal, "")
}

// Publish marshals event and delivers it to every connection of roomID
func (h *Hub) Publish(_ context.Context, roomID string, event events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("broadcast.publish.marshal_failed",
			zap.String("room_id", roomID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		return
	}
	h.Deliver(roomID, string(event.Type), payload)
}

// Deliver enqueues an already encoded event for every connection of roomID.
// Enqueueing happens under the room lock so all connections see the same order.
// Connections whose queue is full are dropped. A room_closed event is followed
// by a close marker, so connections are closed once they have received it.
func (h *Hub) Deliver(roomID, eventType string, payload []byte) {
	h.metrics.EventPublished(eventType)

	h.mu.RLock()
	b := h.rooms[roomID]
	h.mu.RUnlock()
	if b == nil {
		return
	}

	closing := eventType == string(events.TypeRoomClosed)

	var slow []*Client
	b.mu.Lock()
	for c := range b.clients {
		if !c.enqueue(payload) || (closing && !c.enqueue(nil)) {
			slow = append(slow, c)
		}
	}
	b.mu.Unlock()

	for _, c := range slow {
		h.metrics.DeliveryFailed()
		h.logger.Warn("broadcast.deliver.queue_full",
			zap.String("room_id", roomID),
			zap.String("remote_addr", c.addr),
		)
		h.remove(c, ClosePolicyViolation, "client too slow")
	}
}

// ConnectionCount returns the number of live connections in roomID
func (h *Hub) ConnectionCount(roomID string) int {
	h.mu.RLock()
	b := h.rooms[roomID]
	h.mu.RUnlock()
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// AddrCount returns the number of live connections from addr
func (h *Hub) AddrCount(addr string) int {
	h.addrMu.Lock()
	defer h.addrMu.Unlock()
	return h.addrs[addr]
}

// CloseRoom disconnects every connection of roomID
func (h *Hub) CloseRoom(roomID string, reason string) {
	for _, c := range h.snapshot(roomID) {
		h.remove(c, CloseNormal, reason)
	}
}

// Close disconnects everyone and rejects further subscriptions
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	ids := make([]string, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	for _, id := range ids {
		for _, c := range h.snapshot(id) {
			h.remove(c, CloseGoingAway, "server shutting down")
		}
	}
}

func (h *Hub) snapshot(roomID string) []*Client {
	h.mu.RLock()
	b := h.rooms[roomID]
	h.mu.RUnlock()
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Client, 0, len(b.clients))
	for c := range b.clients {
		out = append(out, c)
	}
	return out
}

func (h *Hub) bucket(roomID string) (*roomBucket, error) {
	h.mu.RLock()
	b, ok := h.rooms[roomID]
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		return nil, ErrHubClosed
	}
	if ok {
		return b, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	if b, ok = h.rooms[roomID]; ok {
		return b, nil
	}
	b = &roomBucket{clients: make(map[*Client]struct{})}
	h.rooms[roomID] = b
	return b, nil
}

func (h *Hub) remove(c *Client, code int, reason string) {
	c.once.Do(func() {
		h.mu.RLock()
		b := h.rooms[c.roomID]
		h.mu.RUnlock()

		empty := false
		if b != nil {
			b.mu.Lock()
			delete(b.clients, c)
			empty = len(b.clients) == 0
			b.mu.Unlock()
		}
		if empty {
			h.prune(c.roomID)
		}

		h.releaseAddr(c.addr)
		close(c.done)
		h.metrics.ConnectionClosed()
		_ = c.conn.Close(code, reason)

		h.logger.Info("broadcast.unsubscribe",
			zap.String("room_id", c.roomID),
			zap.String("remote_addr", c.addr),
			zap.Int("close_code", code),
		)
	})
}

// prune drops an empty room bucket. The bucket is marked dead so a concurrent
// Subscribe holding a stale pointer retries.
func (h *Hub) prune(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.rooms[roomID]
	if !ok {
		return
	}
	b.mu.Lock()
	if len(b.clients) == 0 {
		b.dead = true
		delete(h.rooms, roomID)
	}
	b.mu.Unlock()
}

func (h *Hub) acquireAddr(addr string) bool {
	h.addrMu.Lock()
	defer h.addrMu.Unlock()

	if h.opts.MaxConnsPerAddr > 0 && h.addrs[addr] >= h.opts.MaxConnsPerAddr {
		return false
	}
	h.addrs[addr]++
	return true
}

func (h *Hub) releaseAddr(addr string) {
	h.addrMu.Lock()
	defer h.addrMu.Unlock()

	if h.addrs[addr] <= 1 {
		delete(h.addrs, addr)
		return
	}
	h.addrs[addr]--
}
