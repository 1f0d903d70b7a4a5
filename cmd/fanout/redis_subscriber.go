package main

import (
	"context"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
)

// eventChannelPattern matches the per-workflow event channels the worker
// publishes on.
const eventChannelPattern = "workflow:events:*"

// RedisSubscriber listens to Redis PubSub and forwards messages to Hub
type RedisSubscriber struct {
	redis *redis.Client
	hub   *Hub
}

// NewRedisSubscriber creates a new RedisSubscriber instance
func NewRedisSubscriber(redisClient *redis.Client, hub *Hub) *RedisSubscriber {
	return &RedisSubscriber{
		redis: redisClient,
		hub:   hub,
	}
}

// Start begins listening to Redis PubSub channels
func (s *RedisSubscriber) Start(ctx context.Context) {
	// One pattern subscription covers every workflow's channel
	pubsub := s.redis.PSubscribe(ctx, eventChannelPattern)
	defer pubsub.Close()

	log.Printf("Redis subscriber started, listening to: %s", eventChannelPattern)

	// Wait for confirmation that subscription was successful
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Fatalf("Failed to subscribe to Redis: %v", err)
	}

	log.Println("Redis subscription confirmed")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Println("Redis subscriber stopping")
			return

		case msg := <-ch:
			if msg == nil {
				continue
			}

			workflowID := extractWorkflowIDFromChannel(msg.Channel)
			if workflowID == "" {
				log.Printf("Invalid channel format: %s", msg.Channel)
				continue
			}

			s.hub.broadcast <- &Message{
				WorkflowID: workflowID,
				Data:       []byte(msg.Payload),
			}
		}
	}
}

// extractWorkflowIDFromChannel extracts the workflow id from a channel name
// Example: "workflow:events:5a1e…" → "5a1e…"
func extractWorkflowIDFromChannel(channel string) string {
	parts := strings.Split(channel, ":")
	if len(parts) != 3 || parts[0] != "workflow" || parts[1] != "events" {
		return ""
	}
	return parts[2]
}
