package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stwalsh4118/hoadues/internal/logger"
)

// Handler processes one delivered envelope. A nil return acknowledges the
// message. Errors marked with Permanent dead-letter it; any other error
// leaves it pending for redelivery.
type Handler func(ctx context.Context, env Envelope) error

// ConsumerConfig configures a consumer group reader.
type ConsumerConfig struct {
	Stream           string
	Group            string
	Consumer         string
	DeadLetterStream string
	// MaxDeliveries is the number of attempts before a message is dead-lettered.
	MaxDeliveries int64
	// ClaimIdle is how long a message must sit unacknowledged before another
	// consumer may claim it.
	ClaimIdle time.Duration
	Block     time.Duration
	BatchSize int64
}

// Consumer reads a Redis stream through a consumer group. Delivery is
// at-least-once: a message is acknowledged only after its handler succeeds.
type Consumer struct {
	client redis.UniversalClient
	cfg    ConsumerConfig
	log    *logger.Logger
	// retryDelay is how long Run waits after a Redis error before polling again.
	retryDelay time.Duration
}

// NewConsumer creates a consumer. Zero Block and BatchSize get defaults.
func NewConsumer(client redis.UniversalClient, cfg ConsumerConfig, log *logger.Logger) *Consumer {
	if cfg.Block <= 0 {
		cfg.Block = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}

	return &Consumer{
		client:     client,
		cfg:        cfg,
		log:        log.WithComponent("consumer"),
		retryDelay: time.Second,
	}
}

// Run processes messages until ctx is cancelled. Each loop first reclaims
// messages other consumers left pending for too long, then reads new ones.
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	c.log.Info("Consumer started", map[string]interface{}{
		"stream":   c.cfg.Stream,
		"group":    c.cfg.Group,
		"consumer": c.cfg.Consumer,
	})

	for {
		if ctx.Err() != nil {
			c.log.Info("Consumer stopped", nil)
			return nil
		}

		err := c.reclaim(ctx, h)
		if err == nil {
			err = c.readNew(ctx, h)
		}
		if err != nil && ctx.Err() == nil {
			c.log.Error("Stream read failed", err, map[string]interface{}{
				"stream": c.cfg.Stream,
			})
			select {
			case <-ctx.Done():
			case <-time.After(c.retryDelay):
			}
		}
	}
}

// ensureGroup creates the consumer group and stream if they do not exist.
func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s on %s: %w", c.cfg.Group, c.cfg.Stream, err)
	}
	return nil
}

// readNew delivers messages never seen by the group.
func (c *Consumer) readNew(ctx context.Context, h Handler) error {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Stream, ">"},
		Count:    c.cfg.BatchSize,
		Block:    c.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("failed to read from %s: %w", c.cfg.Stream, err)
	}

	for _, stream := range streams {
		for _, msg := range stream.Messages {
			c.process(ctx, h, msg, 1)
		}
	}
	return nil
}

// reclaim takes over messages idle longer than ClaimIdle. Messages that
// have used up their deliveries are dead-lettered without running the handler.
func (c *Consumer) reclaim(ctx context.Context, h Handler) error {
	start := "0-0"
	for {
		msgs, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.cfg.Stream,
			Group:    c.cfg.Group,
			Consumer: c.cfg.Consumer,
			MinIdle:  c.cfg.ClaimIdle,
			Start:    start,
			Count:    c.cfg.BatchSize,
		}).Result()
		if err != nil {
			return fmt.Errorf("failed to claim idle messages on %s: %w", c.cfg.Stream, err)
		}

		for _, msg := range msgs {
			deliveries, err := c.deliveryCount(ctx, msg.ID)
			if err != nil {
				return err
			}
			if deliveries > c.cfg.MaxDeliveries {
				c.deadLetter(ctx, msg, fmt.Sprintf("exceeded %d deliveries", c.cfg.MaxDeliveries))
				continue
			}
			c.process(ctx, h, msg, deliveries)
		}

		if next == "0-0" || next == "" || len(msgs) == 0 {
			return nil
		}
		start = next
	}
}

// deliveryCount returns how many times the group has delivered the message.
func (c *Consumer) deliveryCount(ctx context.Context, id string) (int64, error) {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.cfg.Stream,
		Group:  c.cfg.Group,
		Start:  id,
		End:    id,
		Count:  1,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read pending entry %s: %w", id, err)
	}
	if len(pending) == 0 {
		return 0, nil
	}
	return pending[0].RetryCount, nil
}

// process runs the handler for one message and settles it.
func (c *Consumer) process(ctx context.Context, h Handler, msg redis.XMessage, deliveries int64) {
	env, err := decodeEnvelope(msg.Values)
	if err != nil {
		c.log.Error("Undecodable stream entry", err, map[string]interface{}{
			"message_id": msg.ID,
		})
		c.deadLetter(ctx, msg, err.Error())
		return
	}

	fields := map[string]interface{}{
		"message_id": msg.ID,
		"event_id":   env.ID,
		"event_type": env.EventType,
		"subject":    env.Subject,
		"delivery":   deliveries,
	}

	if err := h(ctx, env); err != nil {
		if IsPermanent(err) {
			c.log.Error("Event failed permanently", err, fields)
			c.deadLetter(ctx, msg, err.Error())
			return
		}
		c.log.Warn("Event failed, leaving pending for redelivery", map[string]interface{}{
			"message_id": msg.ID,
			"event_id":   env.ID,
			"delivery":   deliveries,
			"error":      err.Error(),
		})
		return
	}

	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		// The message will be redelivered; the handler must tolerate that.
		c.log.Error("Failed to acknowledge message", err, fields)
		return
	}

	c.log.Debug("Event processed", fields)
}

// deadLetter copies the message to the dead-letter stream and acknowledges
// it in one transaction.
func (c *Consumer) deadLetter(ctx context.Context, msg redis.XMessage, reason string) {
	values := make(map[string]interface{}, len(msg.Values)+2)
	for k, v := range msg.Values {
		values[k] = v
	}
	values["reason"] = reason
	values["original_id"] = msg.ID

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if c.cfg.DeadLetterStream != "" {
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: c.cfg.DeadLetterStream,
				Values: values,
			})
		}
		pipe.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID)
		return nil
	})
	if err != nil {
		c.log.Error("Failed to dead-letter message", err, map[string]interface{}{
			"message_id": msg.ID,
			"reason":     reason,
		})
		return
	}

	c.log.Warn("Message dead-lettered", map[string]interface{}{
		"message_id":  msg.ID,
		"dead_letter": c.cfg.DeadLetterStream,
		"reason":      reason,
	})
}
