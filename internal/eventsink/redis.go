package eventsink

import (
	"context"
	"encoding/json"
	"fmt"
	"live-auction/internal/models"
	"live-auction/utils"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultBuffer  = 1024
	publishTimeout = 2 * time.Second
)

// redisPublisher is the subset of *redis.Client the mirror needs
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisMirror copies every auction event to Redis pub/sub on "<prefix>:<auction id>".
// Publish never blocks the caller: events go through a bounded queue drained by Run,
// and are dropped when the queue is full.
type RedisMirror struct {
	client redisPublisher
	prefix string
	queue  chan models.Event
}

// NewRedisClient creates a client for addr
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// NewRedisMirror creates a mirror publishing through client
func NewRedisMirror(client redisPublisher, prefix string) *RedisMirror {
	return &RedisMirror{
		client: client,
		prefix: prefix,
		queue:  make(chan models.Event, defaultBuffer),
	}
}

// Channel returns the pub/sub channel of an auction
func (m *RedisMirror) Channel(auctionID string) string {
	return fmt.Sprintf("%s:%s", m.prefix, auctionID)
}

// Publish enqueues event for mirroring
func (m *RedisMirror) Publish(event models.Event) {
	select {
	case m.queue <- event:
	default:
		utils.Warn("eventsink: queue full, dropping event", map[string]any{
			"auction_id": event.AuctionID,
			"event":      string(event.Type),
		})
	}
}

// Run drains the queue until ctx is cancelled. A single goroutine keeps per-auction order.
func (m *RedisMirror) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-m.queue:
			if err := m.send(ctx, ev); err != nil {
				utils.Error("eventsink: failed to mirror event", map[string]any{
					"auction_id": ev.AuctionID,
					"event":      string(ev.Type),
					"error":      err.Error(),
				})
			}
		}
	}
}

func (m *RedisMirror) send(ctx context.Context, ev models.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return m.client.Publish(ctx, m.Channel(ev.AuctionID), payload).Err()
}
