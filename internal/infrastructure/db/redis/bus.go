package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fieldops/tracker/internal/api/metrics"
	"github.com/fieldops/tracker/internal/relay"
)

// relayChannel is the pub/sub channel every API instance subscribes to.
// Publishing through Redis instead of the local hub keeps delivery working
// when several instances share the load.
const relayChannel = "fieldops:relay"

// RelayBus publishes relay events to Redis pub/sub. It implements
// ports.Notifier for the service layer and feeds the hub through Subscribe.
type RelayBus struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewRelayBus(client *redis.Client, logger zerolog.Logger) *RelayBus {
	return &RelayBus{client: client, logger: logger}
}

// NotifyAgent publishes an event addressed to a single agent channel.
func (b *RelayBus) NotifyAgent(ctx context.Context, agentID string, event any) error {
	metrics.RelayMessagesTotal.WithLabelValues("notify_agent").Inc()
	return b.publish(ctx, agentID, event)
}

// NotifyAll publishes an event addressed to every connected client.
func (b *RelayBus) NotifyAll(ctx context.Context, event any) error {
	metrics.RelayMessagesTotal.WithLabelValues("notify_all").Inc()
	return b.publish(ctx, "", event)
}

func (b *RelayBus) publish(ctx context.Context, agentID string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal relay payload: %w", err)
	}

	raw, err := json.Marshal(relay.Event{AgentID: agentID, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal relay event: %w", err)
	}

	if err := b.client.Publish(ctx, relayChannel, raw).Err(); err != nil {
		return fmt.Errorf("publish relay event: %w", err)
	}
	return nil
}

// Subscribe opens the backplane subscription and returns a channel of decoded
// events. Malformed messages are logged and skipped. The channel closes when
// the context is cancelled.
func (b *RelayBus) Subscribe(ctx context.Context) <-chan relay.Event {
	sub := b.client.Subscribe(ctx, relayChannel)
	out := make(chan relay.Event, 64)

	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var ev relay.Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn().Err(err).Msg("relay: dropping malformed bus message")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
