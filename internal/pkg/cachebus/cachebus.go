// Package cachebus tells other instances to drop their in-process caches after
// an admin write.
package cachebus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Topic string

const (
	TopicPolicy      Topic = "policy"
	TopicChargeRates Topic = "charge_rates"
)

// Event names what changed. An empty Key means every entry of the topic.
type Event struct {
	Topic  Topic  `json:"topic"`
	Key    string `json:"key,omitempty"`
	Origin string `json:"origin"`
}

type Publisher interface {
	Publish(ctx context.Context, topic Topic, key string) error
}

// Handlers maps a topic to the cache it evicts.
type Handlers map[Topic]func(key string)

func (h Handlers) dispatch(ev Event) {
	fn, ok := h[ev.Topic]
	if !ok {
		slog.Warn("Cache invalidation for unknown topic", "topic", ev.Topic)
		return
	}
	fn(ev.Key)
}

// resetAll evicts everything; used after a (re)subscribe since messages sent
// while disconnected are lost.
func (h Handlers) resetAll() {
	for _, fn := range h {
		fn("")
	}
}

// Local is the single-instance publisher: the writer already evicted its own
// cache, so there is nobody else to tell.
type Local struct{}

func (Local) Publish(context.Context, Topic, string) error { return nil }

type RedisBus struct {
	client  redis.UniversalClient
	channel string
	origin  string
}

func NewRedisBus(client redis.UniversalClient, keyPrefix string) *RedisBus {
	return &RedisBus{
		client:  client,
		channel: keyPrefix + "cache-invalidate",
		origin:  uuid.NewString(),
	}
}

func (b *RedisBus) Publish(ctx context.Context, topic Topic, key string) error {
	payload, err := json.Marshal(Event{Topic: topic, Key: key, Origin: b.origin})
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish cache invalidation: %w", err)
	}
	return nil
}

// Listen applies invalidations from other instances until ctx is done.
func (b *RedisBus) Listen(ctx context.Context, handlers Handlers) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}
	ch := sub.ChannelWithSubscriptions()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			switch m := msg.(type) {
			case *redis.Subscription:
				if m.Kind == "subscribe" {
					slog.Info("Cache invalidation channel resubscribed, dropping caches", "channel", b.channel)
					handlers.resetAll()
				}
			case *redis.Message:
				b.handle(m.Payload, handlers)
			}
		}
	}
}

func (b *RedisBus) handle(payload string, handlers Handlers) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		slog.Warn("Malformed cache invalidation", "payload", payload, "error", err)
		return
	}
	if ev.Origin == b.origin {
		return
	}
	handlers.dispatch(ev)
}
