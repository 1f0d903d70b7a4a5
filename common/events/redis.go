package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/myuon/flowit-sub001/common/redis"
)

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// RedisPublisher publishes events to the workflow's Pub/Sub channel.
// Delivery is fire-and-forget: a missed event only degrades the editor's
// live view, never the run.
type RedisPublisher struct {
	redis  *redis.Client
	logger Logger
}

// NewRedisPublisher creates a publisher over the shared Redis client.
func NewRedisPublisher(client *redis.Client, logger Logger) *RedisPublisher {
	return &RedisPublisher{redis: client, logger: logger}
}

// Publish marshals the event and publishes it on the workflow channel.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	if event.TS.IsZero() {
		event.TS = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.redis.PublishEvent(ctx, Channel(event.WorkflowID), string(payload)); err != nil {
		if p.logger != nil {
			p.logger.Warn("event publish failed",
				"type", event.Type,
				"execution_id", event.ExecutionID,
				"error", err)
		}
		return err
	}

	return nil
}
