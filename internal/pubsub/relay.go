// Package pubsub relays live events between API instances over Redis.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-distribution-ws/internal/applog"
	"go-distribution-ws/internal/notify"

	"github.com/go-redis/redis/v8"
)

const (
	publishTimeout = 2 * time.Second
	outboxBuffer   = 256
)

// ErrRelayBusy is returned when the outbox is full and the event was dropped.
var ErrRelayBusy = errors.New("redis relay busy, event dropped")

// RedisRelay publishes events to a channel and feeds everything received on
// that channel, including its own messages, into the local publisher.
type RedisRelay struct {
	client  *redis.Client
	channel string
	local   notify.Publisher
	outbox  chan []byte
	publish func(ctx context.Context, body []byte) error
}

func NewRedisRelay(client *redis.Client, channel string, local notify.Publisher) *RedisRelay {
	r := &RedisRelay{
		client:  client,
		channel: channel,
		local:   local,
		outbox:  make(chan []byte, outboxBuffer),
	}
	r.publish = func(ctx context.Context, body []byte) error {
		return r.client.Publish(ctx, r.channel, body).Err()
	}
	return r
}

// Emit queues an event for publishing without blocking the caller.
func (r *RedisRelay) Emit(event string, payload interface{}) error {
	body, err := json.Marshal(notify.Envelope{Event: event, Data: payload})
	if err != nil {
		return err
	}
	select {
	case r.outbox <- body:
		return nil
	default:
		return ErrRelayBusy
	}
}

// Run publishes queued events and forwards received ones. It blocks until ctx
// is cancelled or the subscription closes.
func (r *RedisRelay) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go r.drain(ctx)

	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := r.forward(msg.Payload); err != nil {
				applog.Warn(nil, "relay.forward_failed", err, map[string]any{"channel": r.channel})
			}
		}
	}
}

// drain publishes the outbox one message at a time; a slow Redis only delays
// this goroutine.
func (r *RedisRelay) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case body := <-r.outbox:
			pctx, cancel := context.WithTimeout(ctx, publishTimeout)
			err := r.publish(pctx, body)
			cancel()
			if err != nil {
				applog.Warn(nil, "relay.publish_failed", err, map[string]any{"channel": r.channel})
			}
		}
	}
}

func (r *RedisRelay) forward(raw string) error {
	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return err
	}
	return r.local.Emit(env.Event, env.Data)
}
