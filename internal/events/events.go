package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pongarena/backend/internal/game"
	"github.com/redis/go-redis/v9"
)

// Channel carries game events between server instances.
const Channel = "game_events"

// Publisher pushes session events onto the Redis channel. A nil client makes it a no-op.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

func (p *Publisher) Publish(ctx context.Context, ev game.Event) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", ev.Type, err)
	}
	if err := p.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", ev.Type, err)
	}
	return nil
}

// BracketCache stores tournament snapshots so any instance can resume a bracket.
type BracketCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewBracketCache(rdb *redis.Client, ttl time.Duration) *BracketCache {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &BracketCache{rdb: rdb, ttl: ttl}
}

func BracketKey(id string) string {
	return "tournament:" + id + ":bracket"
}

func (c *BracketCache) SaveBracket(ctx context.Context, id string, snap game.TournamentSnapshot) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode bracket %s: %w", id, err)
	}
	return c.rdb.SetEx(ctx, BracketKey(id), payload, c.ttl).Err()
}

func (c *BracketCache) LoadBracket(ctx context.Context, id string) (*game.TournamentSnapshot, error) {
	if c == nil || c.rdb == nil {
		return nil, game.ErrBracketNotCached
	}
	payload, err := c.rdb.Get(ctx, BracketKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, game.ErrBracketNotCached
		}
		return nil, fmt.Errorf("failed to load bracket %s: %w", id, err)
	}
	var snap game.TournamentSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode bracket %s: %w", id, err)
	}
	return &snap, nil
}

// Decode parses a payload received on Channel.
func Decode(payload string) (game.Event, error) {
	var ev game.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return game.Event{}, fmt.Errorf("invalid game event: %w", err)
	}
	if ev.Type == "" {
		return game.Event{}, errors.New("invalid game event: missing type")
	}
	return ev, nil
}
