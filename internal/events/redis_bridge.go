package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// envelope wraps an event on the wire with the publishing instance's id so a
// relayed event is not re-broadcast by its origin.
type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// RedisBridge relays bus events across instances via Redis pub/sub. It is
// optional; a single-instance deployment works without it.
type RedisBridge struct {
	bus      *Bus
	client   *redis.Client
	channel  string
	instance string
	logger   *zap.Logger
}

// NewRedisBridge wires a bus to a Redis channel.
func NewRedisBridge(bus *Bus, client *redis.Client, channel string, logger *zap.Logger) *RedisBridge {
	return &RedisBridge{
		bus:      bus,
		client:   client,
		channel:  channel,
		instance: uuid.NewString(),
		logger:   logger,
	}
}

// Broadcast publishes the event locally and relays it to peers. Relay
// failures are logged and ignored; the local fan-out already happened.
func (b *RedisBridge) Broadcast(ctx context.Context, event Event) {
	b.bus.Publish(event)

	raw, err := json.Marshal(envelope{Origin: b.instance, Event: event})
	if err != nil {
		b.logger.Warn("marshal event envelope", zap.Error(err))
		return
	}
	if err := b.client.Publish(ctx, b.channel, raw).Err(); err != nil {
		b.logger.Warn("relay event to redis", zap.Error(err))
	}
}

// Run consumes relayed events from peers until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close() //nolint:errcheck

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("decode relayed event", zap.Error(err))
				continue
			}
			if env.Origin == b.instance {
				continue
			}
			b.bus.Publish(env.Event)
		}
	}
}
