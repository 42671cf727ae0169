package lifecycle

import (
	"context"
	"errors"
	bidding "live-auction/internal/biddingService"
	"live-auction/internal/biddingerrors"
	"live-auction/internal/models"
	"live-auction/internal/repository"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

// testClock is a settable clock shared by scheduler and bidding service
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type eventRecorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *eventRecorder) Publish(ev models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) reset() []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

func newAuction(id string, status models.AuctionStatus, begin, end time.Time) models.Auction {
	return models.Auction{
		AuctionID:            id,
		Status:               status,
		StartTime:            begin,
		EndTime:              end,
		StartingPrice:        decimal.NewFromInt(100),
		TimeExtensionMinutes: 1,
	}
}

func setup(t *testing.T, auctions ...models.Auction) (*Scheduler, *repository.MemoryRepo, *eventRecorder, *testClock) {
	t.Helper()
	clock := &testClock{t: start}
	recorder := &eventRecorder{}
	repo := repository.NewMemoryRepo(recorder)
	for _, a := range auctions {
		require.NoError(t, repo.AddAuction(a))
	}
	return NewScheduler(repo, time.Second, WithClock(clock.Now), WithWorkers(4)), repo, recorder, clock
}

// Test one tick over auctions in every state
func TestScheduler_Tick(t *testing.T) {
	tests := []struct {
		name        string
		auction     models.Auction
		wantStatus  models.AuctionStatus
		wantEvents  []models.EventType
		wantSeconds int64
	}{
		{
			name:       "pending_not_due",
			auction:    newAuction("a", models.StatusPending, start.Add(time.Minute), start.Add(time.Hour)),
			wantStatus: models.StatusPending,
		},
		{
			name:        "pending_due_becomes_active",
			auction:     newAuction("a", models.StatusPending, start, start.Add(90*time.Second+700*time.Millisecond)),
			wantStatus:  models.StatusActive,
			wantEvents:  []models.EventType{models.EventTimeUpdate},
			wantSeconds: 90,
		},
		{
			name:       "pending_already_past_deadline",
			auction:    newAuction("a", models.StatusPending, start.Add(-time.Hour), start.Add(-time.Minute)),
			wantStatus: models.StatusEnded,
			wantEvents: []models.EventType{models.EventAuctionEnded},
		},
		{
			name:        "active_counting_down",
			auction:     newAuction("a", models.StatusActive, start.Add(-time.Hour), start.Add(42*time.Second)),
			wantStatus:  models.StatusActive,
			wantEvents:  []models.EventType{models.EventTimeUpdate},
			wantSeconds: 42,
		},
		{
			name:       "active_deadline_now",
			auction:    newAuction("a", models.StatusActive, start.Add(-time.Hour), start),
			wantStatus: models.StatusEnded,
			wantEvents: []models.EventType{models.EventAuctionEnded},
		},
		{
			name:        "active_under_one_second",
			auction:     newAuction("a", models.StatusActive, start.Add(-time.Hour), start.Add(400*time.Millisecond)),
			wantStatus:  models.StatusActive,
			wantEvents:  []models.EventType{models.EventTimeUpdate, models.EventAuctionEnded},
			wantSeconds: 0,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			scheduler, repo, recorder, _ := setup(t, tc.auction)

			result := scheduler.Tick()
			require.Zero(t, result.Failed)

			got, err := repo.GetAuction("a")
			require.NoError(t, err)
			require.Equal(t, tc.wantStatus, got.Status)

			events := recorder.reset()
			types := make([]models.EventType, 0, len(events))
			for _, ev := range events {
				types = append(types, ev.Type)
				if ev.Type == models.EventTimeUpdate {
					require.Equal(t, tc.wantSeconds, ev.Data.(models.TimeUpdatePayload).SecondsLeft)
				}
			}
			if tc.wantEvents == nil {
				require.Empty(t, types)
			} else {
				require.Equal(t, tc.wantEvents, types)
			}
		})
	}
}

// An expired auction ends on the tick and rejects every later bid
func TestScheduler_EndedAuctionRejectsBids(t *testing.T) {
	scheduler, repo, recorder, clock := setup(t,
		newAuction("a1", models.StatusActive, start.Add(-time.Hour), start.Add(2*time.Second)))
	service := bidding.NewBiddingService(repo, bidding.WithClock(clock.Now))

	clock.Set(start.Add(2 * time.Second))
	result := scheduler.Tick()
	require.Equal(t, 1, result.Ended)
	events := recorder.reset()
	require.Len(t, events, 1)
	require.Equal(t, models.EventAuctionEnded, events[0].Type)
	require.Equal(t, "a1", events[0].Data.(models.AuctionEndedPayload).AuctionID)

	_, _, err := service.PlaceBid("a1", "late", "late@example.com", decimal.NewFromInt(1000))
	require.ErrorIs(t, err, biddingerrors.ErrInvalidState)

	// terminal auctions are skipped: no more events
	scheduler.Tick()
	require.Empty(t, recorder.reset())
}

// A bid landing before the tick pushes the deadline so the tick keeps the auction running
func TestScheduler_BidExtensionWinsRace(t *testing.T) {
	scheduler, repo, recorder, clock := setup(t,
		newAuction("a1", models.StatusActive, start.Add(-time.Hour), start.Add(time.Second)))
	service := bidding.NewBiddingService(repo, bidding.WithClock(clock.Now))

	clock.Set(start.Add(500 * time.Millisecond))
	_, _, err := service.PlaceBid("a1", "sniper", "s@example.com", decimal.NewFromInt(110))
	require.NoError(t, err)
	recorder.reset()

	clock.Set(start.Add(time.Second))
	scheduler.Tick()

	got, err := repo.GetAuction("a1")
	require.NoError(t, err)
	require.Equal(t, models.StatusActive, got.Status)
	events := recorder.reset()
	require.Len(t, events, 1)
	require.Equal(t, int64(60), events[0].Data.(models.TimeUpdatePayload).SecondsLeft)
}

// Bids and ticks racing on the same auction always leave a consistent outcome
func TestScheduler_ConcurrentBidsAndTicks(t *testing.T) {
	scheduler, repo, _, clock := setup(t,
		newAuction("a1", models.StatusActive, start.Add(-time.Hour), start.Add(time.Second)))
	service := bidding.NewBiddingService(repo, bidding.WithClock(clock.Now))
	clock.Set(start.Add(time.Second))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			scheduler.Tick()
		}
	}()
	var bidErr error
	go func() {
		defer wg.Done()
		_, _, bidErr = service.PlaceBid("a1", "racer", "r@example.com", decimal.NewFromInt(110))
	}()
	wg.Wait()

	got, err := repo.GetAuction("a1")
	require.NoError(t, err)
	// the deadline equals now, so the bid is rejected whichever side wins the section
	require.Error(t, bidErr)
	require.Equal(t, models.StatusEnded, got.Status)
	require.Zero(t, got.TotalBids)
}

// One failing auction does not stop the pass over the others
func TestScheduler_FailureIsolation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := repository.NewMockAuctionDB(ctrl)
	healthy := newAuction("ok", models.StatusActive, start.Add(-time.Hour), start)
	mockRepo.EXPECT().ListAuctions().Return([]models.Auction{
		newAuction("broken", models.StatusActive, start.Add(-time.Hour), start),
		healthy,
		newAuction("done", models.StatusSold, start.Add(-time.Hour), start),
	}, nil)
	mockRepo.EXPECT().WithAuction("broken", gomock.Any()).Return(models.Auction{}, errors.New("storage failure"))
	mockRepo.EXPECT().WithAuction("ok", gomock.Any()).
		DoAndReturn(func(_ string, fn repository.UpdateFunc) (models.Auction, error) {
			update, err := fn(healthy)
			return update.Auction, err
		})

	scheduler := NewScheduler(mockRepo, time.Second, WithClock(func() time.Time { return start }))
	result := scheduler.Tick()
	require.Equal(t, 1, result.Failed)
	require.Equal(t, 1, result.Ended)

	mockRepo.EXPECT().ListAuctions().Return(nil, errors.New("unavailable"))
	require.Equal(t, 1, scheduler.Tick().Failed)
}

// Run keeps ticking until the context is cancelled
func TestScheduler_Run(t *testing.T) {
	recorder := &eventRecorder{}
	repo := repository.NewMemoryRepo(recorder)
	begin := time.Now().UTC()
	require.NoError(t, repo.AddAuction(newAuction("a1", models.StatusPending, begin, begin.Add(150*time.Millisecond))))

	scheduler := NewScheduler(repo, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()

	require.Eventually(t, func() bool {
		a, err := repo.GetAuction("a1")
		return err == nil && a.Status == models.StatusEnded
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	require.Error(t, NewScheduler(repo, 0).Run(context.Background()))
}
