package perftests

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	bidding "live-auction/internal/biddingService"
	"live-auction/internal/broadcast"
	"live-auction/internal/lifecycle"
	model "live-auction/internal/models"
	repository "live-auction/internal/repository"

	"github.com/shopspring/decimal"
)

func benchAuction(id string, price int64) model.Auction {
	now := time.Now().UTC()
	return model.Auction{
		AuctionID:            id,
		Title:                id,
		Description:          "Benchmark auction",
		Status:               model.StatusActive,
		StartTime:            now.Add(-time.Minute),
		EndTime:              now.Add(24 * time.Hour),
		StartingPrice:        decimal.NewFromInt(price),
		TimeExtensionMinutes: 1,
	}
}

func mustAdd(b *testing.B, repo *repository.MemoryRepo, a model.Auction) {
	if err := repo.AddAuction(a); err != nil {
		b.Fatalf("failed to add auction: %v", err)
	}
}

// Benchmark 1: PlaceBid - Isolated Auctions (Low Contention - Micro Benchmark)
func Benchmark_PlaceBid_Isolated(b *testing.B) {
	repo := repository.NewMemoryRepo(nil)
	svc := bidding.NewBiddingService(repo)

	for i := 0; i < b.N; i++ {
		mustAdd(b, repo, benchAuction(fmt.Sprintf("auction_%d", i), 50))
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		bidder := fmt.Sprintf("user_%d", i)
		amount := decimal.NewFromInt(int64(60 + rand.Intn(100)))
		if _, _, err := svc.PlaceBid(fmt.Sprintf("auction_%d", i), bidder, bidder+"@example.com", amount); err != nil {
			b.Fatalf("failed to place bid: %v", err)
		}
	}
}

// Benchmark 2: PlaceBid - Shared Auction (High Contention - Concurrency Benchmark)
func Benchmark_PlaceBid_ConcurrentSharedAuction(b *testing.B) {
	repo := repository.NewMemoryRepo(nil)
	svc := bidding.NewBiddingService(repo)
	mustAdd(b, repo, benchAuction("shared_auction_1", 50))

	b.ReportAllocs()
	b.ResetTimer()

	var lastBid int64 = 50

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			bidder := fmt.Sprintf("user_parallel_%d", rnd.Int())
			next := atomic.AddInt64(&lastBid, int64(rnd.Intn(15)+10))
			_, _, _ = svc.PlaceBid("shared_auction_1", bidder, bidder+"@example.com", decimal.NewFromInt(next))
		}
	})
}

// Benchmark 3: PlaceBid with subscribers - measures the cost of in-section fanout
func Benchmark_PlaceBid_WithWatchers(b *testing.B) {
	hub := broadcast.NewHub()
	repo := repository.NewMemoryRepo(hub)
	svc := bidding.NewBiddingService(repo)
	mustAdd(b, repo, benchAuction("watched", 50))

	for i := 0; i < 100; i++ {
		hub.Join("watched", &discardSubscriber{id: fmt.Sprintf("viewer_%d", i)})
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		amount := decimal.NewFromInt(int64(60 + 10*i))
		if _, _, err := svc.PlaceBid("watched", "bidder", "bidder@example.com", amount); err != nil {
			b.Fatalf("failed to place bid: %v", err)
		}
	}
}

// Benchmark 4: GetAuction - Parallel reads against one busy auction
func Benchmark_GetAuction_Parallel(b *testing.B) {
	repo := repository.NewMemoryRepo(nil)
	svc := bidding.NewBiddingService(repo)
	mustAdd(b, repo, benchAuction("read_auction", 50))

	for i := 0; i < 200; i++ {
		if _, _, err := svc.PlaceBid("read_auction", "seed", "seed@example.com", decimal.NewFromInt(int64(60+10*i))); err != nil {
			b.Fatalf("failed to seed bid: %v", err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, _, err := svc.GetAuction("read_auction"); err != nil {
				b.Errorf("failed to get auction: %v", err)
			}
		}
	})
}

// Benchmark 5: Scheduler tick over many live auctions
func Benchmark_SchedulerTick(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("auctions_%d", n), func(b *testing.B) {
			repo := repository.NewMemoryRepo(nil)
			for i := 0; i < n; i++ {
				mustAdd(b, repo, benchAuction(fmt.Sprintf("auction_%d", i), 50))
			}
			scheduler := lifecycle.NewScheduler(repo, time.Second)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if res := scheduler.Tick(); res.Active != n {
					b.Fatalf("expected %d active auctions, got %d", n, res.Active)
				}
			}
		})
	}
}

type discardSubscriber struct {
	id string
}

func (s *discardSubscriber) ID() string { return s.id }

func (s *discardSubscriber) Send(model.Event) bool { return true }
