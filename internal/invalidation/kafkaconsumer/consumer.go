// Package kafkaconsumer purges cached infrastructure tiles in response to
// upstream geodata change events.
package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/coastal-risk/internal/featurecache"
	"github.com/mohammed-shakir/coastal-risk/internal/invalidation"
)

// TileMapper resolves a geographic bbox to the cache tiles covering it.
// The osm.Client satisfies this.
type TileMapper interface {
	CoverCells(south, west, north, east float64) ([]string, error)
}

type Consumer struct {
	cfg    Config
	log    zerolog.Logger
	cache  featurecache.Cache
	mapper TileMapper
	filter string // tag filter the cache keys were built with
}

func New(cfg Config, log zerolog.Logger, cache featurecache.Cache, mapper TileMapper, filter string) *Consumer {
	return &Consumer{cfg: cfg, log: log, cache: cache, mapper: mapper, filter: filter}
}

// Start consumes invalidation events until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if c.cache == nil || c.mapper == nil {
		return errors.New("kafkaconsumer: missing dependencies (cache/mapper)")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}

	c.log.Info().
		Strs("brokers", c.cfg.Brokers).
		Str("topic", c.cfg.Topic).
		Str("group", c.cfg.GroupID).
		Msg("invalidation consumer starting")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("invalidation consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				c.log.Error().Err(err).Msg("consumer error")
			}
		}
	}
}

// ProcessOne handles a single message. Malformed events are logged and
// dropped, never retried; cache errors propagate so the message is
// redelivered.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev invalidation.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		c.log.Warn().Err(err).Int64("offset", msg.Offset).Msg("dropping undecodable event")
		return nil
	}
	if err := ev.Validate(); err != nil {
		c.log.Warn().Err(err).Int64("offset", msg.Offset).Msg("dropping invalid event")
		return nil
	}

	cells, err := c.mapper.CoverCells(ev.BBox.South, ev.BBox.West, ev.BBox.North, ev.BBox.East)
	if err != nil {
		c.log.Warn().Err(err).Msg("dropping event with unmappable bbox")
		return nil
	}
	if len(cells) == 0 {
		return nil
	}

	keys := make([]string, len(cells))
	for i, cell := range cells {
		keys[i] = featurecache.TileKey(cell, c.filter)
	}
	if err := c.cache.Del(ctx, keys...); err != nil {
		return fmt.Errorf("purge %d tiles: %w", len(keys), err)
	}
	c.log.Debug().Str("op", ev.Op).Int("tiles", len(keys)).Msg("purged tiles")
	return nil
}
