package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/coastal-risk/internal/featurecache"
	"github.com/mohammed-shakir/coastal-risk/internal/invalidation"
)

type fakeCache struct {
	deleted []string
	delErr  error
}

func (f *fakeCache) MGet(context.Context, []string) (map[string][]byte, error) { return nil, nil }
func (f *fakeCache) Set(context.Context, string, []byte, time.Duration) error  { return nil }
func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, keys...)
	return nil
}

type fakeMapper struct {
	cells []string
	err   error
}

func (f *fakeMapper) CoverCells(_, _, _, _ float64) ([]string, error) {
	return f.cells, f.err
}

func eventMsg(t *testing.T, ev invalidation.Event) *sarama.ConsumerMessage {
	t.Helper()
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return &sarama.ConsumerMessage{Topic: "infra-invalidation", Value: body}
}

func goodEvent() invalidation.Event {
	return invalidation.Event{
		Version: 1,
		Op:      "update",
		TS:      time.Now(),
		BBox:    invalidation.BBox{South: 57.6, West: 11.8, North: 57.8, East: 12.1},
	}
}

func TestProcessOne_PurgesCoveredTiles(t *testing.T) {
	cache := &fakeCache{}
	mapper := &fakeMapper{cells: []string{"cellA", "cellB"}}
	c := New(DefaultConfig("broker:9092", "", ""), zerolog.Nop(), cache, mapper, "building+highway")

	if err := c.ProcessOne(context.Background(), eventMsg(t, goodEvent())); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if len(cache.deleted) != 2 {
		t.Fatalf("deleted %d keys, want 2", len(cache.deleted))
	}
	want := featurecache.TileKey("cellA", "building+highway")
	if cache.deleted[0] != want {
		t.Fatalf("key = %q, want %q", cache.deleted[0], want)
	}
}

func TestProcessOne_DropsBadMessages(t *testing.T) {
	cache := &fakeCache{}
	c := New(DefaultConfig("broker:9092", "", ""), zerolog.Nop(), cache, &fakeMapper{}, "f")

	// undecodable payload: dropped, not retried
	msg := &sarama.ConsumerMessage{Value: []byte("not json")}
	if err := c.ProcessOne(context.Background(), msg); err != nil {
		t.Fatalf("undecodable message must be dropped silently, got %v", err)
	}

	// valid JSON, invalid event
	bad := goodEvent()
	bad.Op = "upsert"
	if err := c.ProcessOne(context.Background(), eventMsg(t, bad)); err != nil {
		t.Fatalf("invalid event must be dropped silently, got %v", err)
	}

	if len(cache.deleted) != 0 {
		t.Fatalf("bad messages must not purge anything")
	}
}

func TestProcessOne_MapperFailureDropsEvent(t *testing.T) {
	cache := &fakeCache{}
	mapper := &fakeMapper{err: errors.New("polyfill failed")}
	c := New(DefaultConfig("broker:9092", "", ""), zerolog.Nop(), cache, mapper, "f")

	if err := c.ProcessOne(context.Background(), eventMsg(t, goodEvent())); err != nil {
		t.Fatalf("unmappable bbox must be dropped, got %v", err)
	}
	if len(cache.deleted) != 0 {
		t.Fatalf("nothing should be purged")
	}
}

func TestProcessOne_CacheErrorPropagates(t *testing.T) {
	cache := &fakeCache{delErr: errors.New("redis down")}
	mapper := &fakeMapper{cells: []string{"cellA"}}
	c := New(DefaultConfig("broker:9092", "", ""), zerolog.Nop(), cache, mapper, "f")

	if err := c.ProcessOne(context.Background(), eventMsg(t, goodEvent())); err == nil {
		t.Fatalf("cache failure must propagate for redelivery")
	}
}

func TestProcessOne_NoCells(t *testing.T) {
	cache := &fakeCache{}
	c := New(DefaultConfig("broker:9092", "", ""), zerolog.Nop(), cache, &fakeMapper{}, "f")
	if err := c.ProcessOne(context.Background(), eventMsg(t, goodEvent())); err != nil {
		t.Fatalf("empty cover set must be a no-op, got %v", err)
	}
	if len(cache.deleted) != 0 {
		t.Fatalf("no-op purged keys")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("b1:9092, b2:9092,", "", "")
	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "b2:9092" {
		t.Fatalf("brokers = %v", cfg.Brokers)
	}
	if cfg.Topic != "infra-invalidation" || cfg.GroupID != "tile-invalidator" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if !cfg.InitialOffsetOldest {
		t.Fatalf("initial offset should default to oldest")
	}

	custom := DefaultConfig("b:9092", "events", "grp")
	if custom.Topic != "events" || custom.GroupID != "grp" {
		t.Fatalf("explicit names overridden: %+v", custom)
	}
}

func TestStart_RequiresDependencies(t *testing.T) {
	c := New(DefaultConfig("b:9092", "", ""), zerolog.Nop(), nil, nil, "f")
	if err := c.Start(context.Background()); err == nil {
		t.Fatalf("missing dependencies must fail fast")
	}
}
