package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
)

// RedisRelay shares messages between backend instances over a pub/sub
// channel. As a Sink it publishes this instance's messages; Run feeds the
// other instances' messages into the local hub.
type RedisRelay struct {
	rdb     *redis.Client
	channel string
	origin  string
	hub     *Hub
}

func NewRedisRelay(rdb *redis.Client, channel, origin string, hub *Hub) *RedisRelay {
	return &RedisRelay{rdb: rdb, channel: channel, origin: origin, hub: hub}
}

func (r *RedisRelay) Name() string { return "redis" }

func (r *RedisRelay) Send(ctx context.Context, msg models.BroadcastMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return r.rdb.Publish(ctx, r.channel, data).Err()
}

// Run subscribes to the channel until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", r.channel, err)
	}
	log.Printf("redis relay subscribed to %s", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(m.Payload)
		}
	}
}

func (r *RedisRelay) handle(payload string) {
	var msg models.BroadcastMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		log.Printf("redis relay: bad message: %v", err)
		return
	}
	if msg.Origin == r.origin {
		return
	}
	r.hub.Publish(GroupWarnings, msg)
}

func (r *RedisRelay) Close() error {
	return r.rdb.Close()
}
