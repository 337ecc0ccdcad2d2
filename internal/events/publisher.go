package events

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher publishes events to the bus.
type Publisher interface {
	Publish(ctx context.Context, subject, eventType string, payload interface{}) error
}

// RedisPublisher appends events to a Redis stream.
type RedisPublisher struct {
	client redis.Cmdable
	stream string
	now    func() time.Time
}

// NewRedisPublisher creates a publisher writing to stream.
func NewRedisPublisher(client redis.Cmdable, stream string) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		stream: stream,
		now:    time.Now,
	}
}

// Publish wraps payload in an envelope and appends it to the stream.
// It returns once Redis has acknowledged the write.
func (p *RedisPublisher) Publish(ctx context.Context, subject, eventType string, payload interface{}) error {
	env, err := NewEnvelope(subject, eventType, payload, p.now())
	if err != nil {
		return err
	}

	encoded, err := encodeEnvelope(env)
	if err != nil {
		return err
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			envelopeField: encoded,
			"subject":     subject,
			"eventType":   eventType,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish %s event to %s: %w", eventType, p.stream, err)
	}

	return nil
}
