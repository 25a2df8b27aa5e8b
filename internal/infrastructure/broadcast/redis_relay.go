package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/KiiTuNp/SUPERvote/internal/domain/events"
)

// DefaultRelayChannel is the redis channel shared by all processes
const DefaultRelayChannel = "supervote:events"

// RedisRelay publishes room events through redis pub/sub so every process
// delivers them to its own connections, itself included.
type RedisRelay struct {
	client  redis.UniversalClient
	hub     *Hub
	channel string
	logger  *zap.Logger
}

type relayEnvelope struct {
	RoomID string          `json:"room_id"`
	Type   string          `json:"type"`
	Event  json.RawMessage `json:"event"`
}

var _ events.Publisher = (*RedisRelay)(nil)

// NewRedisRelay creates a relay feeding hub
func NewRedisRelay(client redis.UniversalClient, hub *Hub, channel string, logger *zap.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{
		client:  client,
		hub:     hub,
		channel: channel,
		logger:  logger.Named("relay"),
	}
}

// Publish sends the event to redis. When redis is unreachable the event is
// delivered to local connections only.
func (r *RedisRelay) Publish(ctx context.Context, roomID string, event events.Event) {
	raw, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("relay.publish.marshal_failed", zap.String("room_id", roomID), zap.Error(err))
		return
	}
	msg, err := json.Marshal(relayEnvelope{RoomID: roomID, Type: string(event.Type), Event: raw})
	if err != nil {
		r.logger.Error("relay.publish.marshal_failed", zap.String("room_id", roomID), zap.Error(err))
		return
	}

	if err := r.client.Publish(ctx, r.channel, msg).Err(); err != nil {
		r.logger.Warn("relay.publish.fallback_local",
			zap.String("room_id", roomID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		r.hub.Deliver(roomID, string(event.Type), raw)
	}
}

// Run subscribes to the channel and forwards messages to the hub until ctx is done
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.logger.Info("relay.subscribed", zap.String("channel", r.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.logger.Warn("relay.receive.decode_failed", zap.Error(err))
				continue
			}
			r.hub.Deliver(env.RoomID, env.Type, env.Event)
		}
	}
}
