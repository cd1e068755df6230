// Package events delivers committed domain events to collaborators.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"procurement/internal/core"
)

// Redis publishes each event as JSON on a pub/sub channel.
type Redis struct {
	rdb     *redis.Client
	channel string
}

func NewRedis(rdb *redis.Client, channel string) *Redis {
	return &Redis{rdb: rdb, channel: channel}
}

func (p *Redis) Publish(ctx context.Context, e core.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.Type, err)
	}
	if err := p.rdb.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", e.Type, p.channel, err)
	}
	return nil
}

// Log writes events to the structured log. Used when no broker is configured.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	return &Log{log: log}
}

func (p *Log) Publish(_ context.Context, e core.Event) error {
	p.log.Info("event",
		zap.String("type", e.Type),
		zap.Int("entity_id", e.EntityID),
		zap.String("number", e.Number),
		zap.String("status", e.Status),
		zap.String("actor", e.Actor),
		zap.Time("occurred_at", e.OccurredAt),
	)
	return nil
}

// Fanout publishes to every publisher and returns the first error after trying all of them.
type Fanout []core.EventPublisher

func (f Fanout) Publish(ctx context.Context, e core.Event) error {
	var first error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
