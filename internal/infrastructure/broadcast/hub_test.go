package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KiiTuNp/SUPERvote/internal/domain/events"
	"github.com/KiiTuNp/SUPERvote/pkg/metrics"
)

type fakeConn struct {
	addr string

	mu        sync.Mutex
	msgs      [][]byte
	fail      bool
	block     chan struct{}
	closed    bool
	closeCode int
}

func newFakeConn(addr string) *fakeConn {
	return &fakeConn{addr: addr}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.msgs = append(c.msgs, data)
	return nil
}

func (c *fakeConn) Close(code int, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.closeCode = code
	}
	return nil
}

func (c *fakeConn) RemoteAddr() string { return c.addr }

func (c *fakeConn) messages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.msgs...)
}

func (c *fakeConn) isClosed() (bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed, c.closeCode
}

func newTestHub(opts Options) (*Hub, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return NewHub(opts, zap.NewNop(), m), m
}

func event(n int) events.Event {
	return events.New(events.TypeVoteCast, "R1", map[string]int{"n": n}, time.Unix(0, 0).UTC())
}

func TestHub_PublishReachesEverySubscriberOfTheRoom(t *testing.T) {
	hub, _ := newTestHub(Options{MaxConnsPerAddr: 10})
	a, b, other := newFakeConn("1.1.1.1"), newFakeConn("2.2.2.2"), newFakeConn("3.3.3.3")

	_, err := hub.Subscribe("R1", a)
	require.NoError(t, err)
	_, err = hub.Subscribe("R1", b)
	require.NoError(t, err)
	_, err = hub.Subscribe("R2", other)
	require.NoError(t, err)

	hub.Publish(context.Background(), "R1", event(1))

	require.Eventually(t, func() bool {
		return len(a.messages()) == 1 && len(b.messages()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, other.messages())

	var got events.Event
	require.NoError(t, json.Unmarshal(a.messages()[0], &got))
	assert.Equal(t, events.TypeVoteCast, got.Type)
	assert.Equal(t, "R1", got.RoomID)
}

func TestHub_DeliversInPublishOrderPerConnection(t *testing.T) {
	hub, _ := newTestHub(Options{QueueSize: 256})
	conn := newFakeConn("1.1.1.1")
	_, err := hub.Subscribe("R1", conn)
	require.NoError(t, err)

	const n = 200
	for i := 0; i < n; i++ {
		hub.Publish(context.Background(), "R1", event(i))
	}

	require.Eventually(t, func() bool { return len(conn.messages()) == n }, 2*time.Second, 5*time.Millisecond)
	for i, raw := range conn.messages() {
		var got struct {
			Data struct{ N int } `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, i, got.Data.N)
	}
}

func TestHub_RejectsConnectionsOverPerAddressCap(t *testing.T) {
	hub, m := newTestHub(Options{MaxConnsPerAddr: 2})

	first, second, third := newFakeConn("9.9.9.9"), newFakeConn("9.9.9.9"), newFakeConn("9.9.9.9")
	_, err := hub.Subscribe("R1", first)
	require.NoError(t, err)
	_, err = hub.Subscribe("R2", second)
	require.NoError(t, err)

	_, err = hub.Subscribe("R1", third)
	require.ErrorIs(t, err, ErrConnectionLimit)

	closed, code := third.isClosed()
	assert.True(t, closed)
	assert.Equal(t, ClosePolicyViolation, code)

	// existing connections are untouched
	closed, _ = first.isClosed()
	assert.False(t, closed)
	assert.Equal(t, 2, hub.AddrCount("9.9.9.9"))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RejectedConns))

	// another address is unaffected
	_, err = hub.Subscribe("R1", newFakeConn("8.8.8.8"))
	require.NoError(t, err)
}

func TestHub_UnsubscribeIsIdempotentAndFreesTheSlot(t *testing.T) {
	hub, m := newTestHub(Options{MaxConnsPerAddr: 1})
	conn := newFakeConn("1.1.1.1")

	c, err := hub.Subscribe("R1", conn)
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ActiveConnections))

	hub.Unsubscribe(c)
	hub.Unsubscribe(c)
	hub.Unsubscribe(nil)

	assert.Equal(t, 0, hub.ConnectionCount("R1"))
	assert.Equal(t, 0, hub.AddrCount("1.1.1.1"))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.ActiveConnections))

	_, err = hub.Subscribe("R1", newFakeConn("1.1.1.1"))
	require.NoError(t, err)
}

func TestHub_FailedWriteRemovesOnlyThatConnection(t *testing.T) {
	hub, m := newTestHub(Options{})
	healthy, broken := newFakeConn("1.1.1.1"), newFakeConn("2.2.2.2")
	broken.fail = true

	_, err := hub.Subscribe("R1", healthy)
	require.NoError(t, err)
	brokenClient, err := hub.Subscribe("R1", broken)
	require.NoError(t, err)

	hub.Publish(context.Background(), "R1", event(1))

	select {
	case <-brokenClient.Done():
	case <-time.After(time.Second):
		t.Fatal("broken connection was not removed")
	}
	require.Eventually(t, func() bool { return len(healthy.messages()) == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(context.Background(), "R1", event(2))
	require.Eventually(t, func() bool { return len(healthy.messages()) == 2 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, hub.ConnectionCount("R1"))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DeliveryFailures))
	_, code := broken.isClosed()
	assert.Equal(t, CloseInternalError, code)
}

func TestHub_SlowConnectionIsDroppedWithoutBlockingOthers(t *testing.T) {
	hub, _ := newTestHub(Options{QueueSize: 1})
	slow, fast := newFakeConn("1.1.1.1"), newFakeConn("2.2.2.2")
	slow.block = make(chan struct{})
	defer close(slow.block)

	slowClient, err := hub.Subscribe("R1", slow)
	require.NoError(t, err)
	_, err = hub.Subscribe("R1", fast)
	require.NoError(t, err)

	// the first message parks in the writer, the second fills the queue, the third overflows
	for i := 0; i < 3; i++ {
		hub.Publish(context.Background(), "R1", event(i))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-slowClient.Done():
	case <-time.After(time.Second):
		t.Fatal("slow connection was not dropped")
	}
	require.Eventually(t, func() bool { return len(fast.messages()) == 3 }, time.Second, 5*time.Millisecond)
}

func TestHub_ConcurrentChurn(t *testing.T) {
	hub, _ := newTestHub(Options{MaxConnsPerAddr: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room := fmt.Sprintf("R%d", i%5)
			c, err := hub.Subscribe(room, newFakeConn("10.0.0.1"))
			if err != nil {
				return
			}
			hub.Publish(context.Background(), room, event(i))
			hub.Unsubscribe(c)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		assert.Equal(t, 0, hub.ConnectionCount(fmt.Sprintf("R%d", i)))
	}
	assert.Equal(t, 0, hub.AddrCount("10.0.0.1"))
}

func TestHub_CloseRejectsNewSubscribers(t *testing.T) {
	hub, _ := newTestHub(Options{})
	conn := newFakeConn("1.1.1.1")
	_, err := hub.Subscribe("R1", conn)
	require.NoError(t, err)

	hub.Close()

	closed, code := conn.isClosed()
	assert.True(t, closed)
	assert.Equal(t, CloseGoingAway, code)

	_, err = hub.Subscribe("R1", newFakeConn("1.1.1.1"))
	require.ErrorIs(t, err, ErrHubClosed)
	assert.Equal(t, 0, hub.AddrCount("1.1.1.1"))
}

func TestHub_RoomClosedIsDeliveredThenConnectionsClose(t *testing.T) {
	hub, _ := newTestHub(Options{})
	conn, other := newFakeConn("1.1.1.1"), newFakeConn("2.2.2.2")
	_, err := hub.Subscribe("R1", conn)
	require.NoError(t, err)
	_, err = hub.Subscribe("R2", other)
	require.NoError(t, err)

	hub.Publish(context.Background(), "R1", event(1))
	hub.Publish(context.Background(), "R1", events.RoomClosed("R1", "expired", time.Unix(0, 0).UTC()))

	require.Eventually(t, func() bool {
		closed, code := conn.isClosed()
		return closed && code == CloseNormal
	}, time.Second, 5*time.Millisecond)

	msgs := conn.messages()
	require.Len(t, msgs, 2)
	var got events.Event
	require.NoError(t, json.Unmarshal(msgs[1], &got))
	assert.Equal(t, events.TypeRoomClosed, got.Type)

	assert.Equal(t, 0, hub.ConnectionCount("R1"))
	assert.Equal(t, 1, hub.ConnectionCount("R2"))
	closed, _ := other.isClosed()
	assert.False(t, closed)
}
