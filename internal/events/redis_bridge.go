package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/go-redis/redis/v8"
)

// DefaultChannel is the pub/sub channel downstream bridges subscribe to.
const DefaultChannel = "pos.events"

// RedisBridge relays domain events to network subscribers over Redis
// pub/sub. Relay failures are logged and dropped; the core's view of
// delivery is best-effort.
type RedisBridge struct {
	rdb     *redis.Client
	channel string
}

func NewRedisBridge(rdb *redis.Client, channel string) *RedisBridge {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBridge{rdb: rdb, channel: channel}
}

// Handle is a Bus subscriber.
func (b *RedisBridge) Handle(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[EVENTS] Failed to marshal %s event: %v", ev.Type, err)
		return
	}

	if err := b.rdb.Publish(context.Background(), b.channel, payload).Err(); err != nil {
		log.Printf("[EVENTS] Failed to relay %s event to redis: %v", ev.Type, err)
	}
}
