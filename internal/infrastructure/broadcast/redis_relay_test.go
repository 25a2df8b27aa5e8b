package broadcast

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KiiTuNp/SUPERvote/internal/domain/events"
)

func TestRedisRelay_FansOutAcrossHubs(t *testing.T) {
	mr := miniredis.RunT(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// two processes sharing one redis
	hubA, _ := newTestHub(Options{})
	hubB, _ := newTestHub(Options{})
	clientA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	clientB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer clientA.Close()
	defer clientB.Close()

	relayA := NewRedisRelay(clientA, hubA, "", zap.NewNop())
	relayB := NewRedisRelay(clientB, hubB, "", zap.NewNop())
	go func() { _ = relayA.Run(ctx) }()
	go func() { _ = relayB.Run(ctx) }()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(DefaultRelayChannel)[DefaultRelayChannel] == 2
	}, time.Second, 10*time.Millisecond)

	connA, connB := newFakeConn("1.1.1.1"), newFakeConn("2.2.2.2")
	_, err := hubA.Subscribe("R1", connA)
	require.NoError(t, err)
	_, err = hubB.Subscribe("R1", connB)
	require.NoError(t, err)

	relayA.Publish(ctx, "R1", events.New(events.TypePollStarted, "R1", map[string]string{"poll_id": "p1"}, time.Now().UTC()))

	require.Eventually(t, func() bool {
		return len(connA.messages()) == 1 && len(connB.messages()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	var got events.Event
	require.NoError(t, json.Unmarshal(connB.messages()[0], &got))
	assert.Equal(t, events.TypePollStarted, got.Type)
}

func TestRedisRelay_FallsBackToLocalDeliveryWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	hub, _ := newTestHub(Options{})
	relay := NewRedisRelay(client, hub, "test:events", zap.NewNop())

	conn := newFakeConn("1.1.1.1")
	_, err := hub.Subscribe("R1", conn)
	require.NoError(t, err)

	mr.Close()
	relay.Publish(context.Background(), "R1", event(1))

	require.Eventually(t, func() bool { return len(conn.messages()) == 1 }, time.Second, 10*time.Millisecond)
}
