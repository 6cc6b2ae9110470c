package broker

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	readBlock = 5 * time.Second
	readCount = 32
	maxLen    = 100000 // keep the stream from growing without bound
)

// RedisBroker implements Publisher and Subscriber on top of Redis Streams.
// Consumer groups give every server instance its own cursor over the shared
// stream, so each instance sees each payload once.
type RedisBroker struct {
	client   *redis.Client
	consumer string // unique per instance
	log      logrus.FieldLogger
}

func NewRedisBroker(client *redis.Client, log logrus.FieldLogger) *RedisBroker {
	return &RedisBroker{
		client:   client,
		consumer: uuid.NewString(),
		log:      log,
	}
}

// Consumer returns this instance's consumer name within the group.
func (b *RedisBroker) Consumer() string {
	return b.consumer
}

func (b *RedisBroker) Publish(ctx context.Context, topic, partitionKey string, payload []byte) error {
	return b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		MaxLen: maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"key":     partitionKey,
			"payload": payload,
		},
	}).Err()
}

// Subscribe creates the consumer group if needed, then loops reading new
// entries and acking them after the handler returns. Returns nil once ctx is
// cancelled.
func (b *RedisBroker) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	err := b.client.XGroupCreateMkStream(ctx, topic, group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}

	// The group cursor starts at each instance's join point. Every instance
	// must consume every event, so each instance uses its own group.
	for {
		if ctx.Err() != nil {
			return nil
		}
		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: b.consumer,
			Streams:  []string{topic, ">"},
			Count:    readCount,
			Block:    readBlock,
		}).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			b.log.WithError(err).Warn("broker read failed, backing off")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				if raw, ok := msg.Values["payload"].(string); ok {
					h(ctx, []byte(raw))
				}
				if err := b.client.XAck(ctx, topic, group, msg.ID).Err(); err != nil {
					b.log.WithError(err).Warn("broker ack failed")
				}
			}
		}
	}
}
