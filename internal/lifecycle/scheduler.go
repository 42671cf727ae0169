package lifecycle

import (
	"context"
	"fmt"
	"live-auction/internal/models"
	"live-auction/internal/repository"
	"live-auction/utils"
	"time"

	"github.com/viney-shih/goroutines"
)

const DefaultWorkers = 8

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock replaces the wall clock used to evaluate deadlines
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithWorkers bounds how many auctions one tick evaluates in parallel
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// Scheduler drives deadline-based status transitions and the per-second countdown.
// Every transition goes through the store's atomic section, the same path bids use.
type Scheduler struct {
	repo     repository.AuctionDB
	interval time.Duration
	workers  int
	now      func() time.Time
}

// TickResult summarizes one pass over the store
type TickResult struct {
	Activated int
	Ended     int
	Active    int
	Failed    int
}

type outcome struct {
	activated bool
	ended     bool
	active    bool
}

// NewScheduler creates a Scheduler ticking every interval
func NewScheduler(repo repository.AuctionDB, interval time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		repo:     repo,
		interval: interval,
		workers:  DefaultWorkers,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks until ctx is cancelled. A tick that overruns the interval delays the next
// one instead of queuing a burst.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("lifecycle: invalid tick interval %s", s.interval)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	utils.Info("lifecycle: scheduler started", map[string]any{"interval": s.interval.String()})
	for {
		select {
		case <-ctx.Done():
			utils.Info("lifecycle: scheduler stopped", nil)
			return nil
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick evaluates every non-terminal auction once. Failures are isolated per auction.
func (s *Scheduler) Tick() TickResult {
	var result TickResult

	auctions, err := s.repo.ListAuctions()
	if err != nil {
		utils.Error("lifecycle: failed to list auctions", map[string]any{"error": err.Error()})
		result.Failed++
		return result
	}

	ids := make([]string, 0, len(auctions))
	for _, a := range auctions {
		// terminal states never change, skip them without taking their section
		if !a.Status.IsTerminal() {
			ids = append(ids, a.AuctionID)
		}
	}
	if len(ids) == 0 {
		return result
	}

	b := goroutines.NewBatch(s.workers, goroutines.WithBatchSize(len(ids)))
	defer b.Close()
	for _, id := range ids {
		auctionID := id
		if err := b.Queue(func() (interface{}, error) {
			return s.advance(auctionID)
		}); err != nil {
			utils.Error("lifecycle: failed to queue auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
			result.Failed++
		}
	}
	b.QueueComplete()

	for ret := range b.Results() {
		if ret.Error() != nil {
			utils.Error("lifecycle: failed to advance auction", map[string]any{"error": ret.Error().Error()})
			result.Failed++
			continue
		}
		out, _ := ret.Value().(outcome)
		if out.activated {
			result.Activated++
		}
		if out.ended {
			result.Ended++
		}
		if out.active {
			result.Active++
		}
	}
	return result
}

// advance applies the state machine to one auction inside its exclusive section
func (s *Scheduler) advance(auctionID string) (outcome, error) {
	var out outcome
	_, err := s.repo.WithAuction(auctionID, func(current models.Auction) (repository.Update, error) {
		out = outcome{}
		now := s.now()
		next := current
		var events []models.Event

		if next.Status == models.StatusPending && !next.StartTime.After(now) {
			next.Status = models.StatusActive
			out.activated = true
		}
		if next.Status == models.StatusActive && !next.EndTime.After(now) {
			next.Status = models.StatusEnded
			out.ended = true
			events = append(events, models.AuctionEndedEvent(auctionID))
		}
		if next.Status == models.StatusActive {
			out.active = true
			left := secondsLeft(next.EndTime, now)
			events = append(events, models.TimeUpdateEvent(auctionID, left))
			if left == 0 {
				// under a second to go: subscribers must not sit on a stale "0s, active"
				events = append(events, models.AuctionEndedEvent(auctionID))
			}
		}

		return repository.Update{Auction: next, Events: events}, nil
	})
	if err != nil {
		return outcome{}, fmt.Errorf("lifecycle: auction %s: %w", auctionID, err)
	}

	if out.activated {
		utils.Info("lifecycle: auction started", map[string]any{"auction_id": auctionID})
	}
	if out.ended {
		utils.Info("lifecycle: auction ended", map[string]any{"auction_id": auctionID})
	}
	return out, nil
}

func secondsLeft(end, now time.Time) int64 {
	left := end.Sub(now)
	if left <= 0 {
		return 0
	}
	return int64(left / time.Second)
}
