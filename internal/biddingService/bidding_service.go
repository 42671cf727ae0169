package bidding

import (
	"fmt"
	"live-auction/internal/biddingerrors"
	"live-auction/internal/models"
	"live-auction/internal/repository"
	"live-auction/utils"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBidIncrement is the system-wide minimum raise over the current price
var DefaultBidIncrement = decimal.NewFromInt(10)

const (
	DefaultExtensionMinutes = 1
	DefaultRecentBidsLimit  = 50
)

// Option configures a BiddingService
type Option func(*BiddingService)

// WithClock replaces the wall clock used for deadlines and bid timestamps
func WithClock(now func() time.Time) Option {
	return func(s *BiddingService) { s.now = now }
}

// WithBidIncrement sets the minimum raise applied to every auction
func WithBidIncrement(increment decimal.Decimal) Option {
	return func(s *BiddingService) { s.increment = increment }
}

// WithDefaultExtension sets the anti-snipe extension used by auctions that configure none
func WithDefaultExtension(minutes int) Option {
	return func(s *BiddingService) { s.defaultExtension = minutes }
}

// WithRecentBidsLimit sets how many bids GetAuction returns
func WithRecentBidsLimit(limit int) Option {
	return func(s *BiddingService) { s.recentBids = limit }
}

// BiddingService validates and applies bids and buyouts, one atomic section per call
type BiddingService struct {
	repo             repository.AuctionDB
	increment        decimal.Decimal
	defaultExtension int
	recentBids       int
	now              func() time.Time
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, opts ...Option) *BiddingService {
	s := &BiddingService{
		repo:             repo,
		increment:        DefaultBidIncrement,
		defaultExtension: DefaultExtensionMinutes,
		recentBids:       DefaultRecentBidsLimit,
		now:              func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MinimumBid returns the lowest amount the auction accepts next
func (s *BiddingService) MinimumBid(auction models.Auction) decimal.Decimal {
	return auction.CurrentPrice.Add(s.increment)
}

func (s *BiddingService) extension(auction models.Auction) time.Duration {
	minutes := auction.TimeExtensionMinutes
	if minutes <= 0 {
		minutes = s.defaultExtension
	}
	return time.Duration(minutes) * time.Minute
}

// PlaceBid validates and records a bid, extending the auction deadline
func (s *BiddingService) PlaceBid(auctionID, bidderName, bidderEmail string, amount decimal.Decimal) (models.Auction, models.Bid, error) {
	if err := validateParticipant(auctionID, bidderName, bidderEmail); err != nil {
		return models.Auction{}, models.Bid{}, err
	}
	if !amount.IsPositive() {
		return models.Auction{}, models.Bid{}, biddingerrors.Reject(biddingerrors.ErrInvalidBid, "Bid amount must be positive")
	}

	var placed models.Bid
	auction, err := s.repo.WithAuction(auctionID, func(current models.Auction) (repository.Update, error) {
		now := s.now()
		if err := checkOpen(current, now); err != nil {
			return repository.Update{}, err
		}

		minimum := s.MinimumBid(current)
		if amount.LessThan(minimum) {
			return repository.Update{}, biddingerrors.Reject(biddingerrors.ErrBidTooLow, "Bid must be at least $%s", minimum.StringFixed(2))
		}

		placed = models.Bid{
			BidID:       utils.GenerateID(),
			AuctionID:   current.AuctionID,
			BidderName:  bidderName,
			BidderEmail: bidderEmail,
			Amount:      amount,
			BidTime:     nextBidTime(current, now),
		}

		next := current
		next.CurrentPrice = amount
		next.TotalBids++
		next.EndTime = current.EndTime.Add(s.extension(current))
		next.LastBidTime = placed.BidTime
		next.LeadingBidder = bidderName

		return repository.Update{
			Auction: next,
			Bid:     &placed,
			Events:  []models.Event{models.NewBidEvent(next, placed)},
		}, nil
	})
	if err != nil {
		return models.Auction{}, models.Bid{}, fmt.Errorf("service: failed to place bid on auction %s: %w", auctionID, err)
	}

	return auction, placed, nil
}

// BuyNow sells the auction at its buyout price and ends it immediately
func (s *BiddingService) BuyNow(auctionID, buyerName, buyerEmail string) (models.Auction, error) {
	if err := validateParticipant(auctionID, buyerName, buyerEmail); err != nil {
		return models.Auction{}, err
	}

	auction, err := s.repo.WithAuction(auctionID, func(current models.Auction) (repository.Update, error) {
		now := s.now()
		if current.Status != models.StatusActive {
			return repository.Update{}, notActive(current)
		}
		if !current.HasBuyout() {
			return repository.Update{}, biddingerrors.Reject(biddingerrors.ErrNoBuyout, "Auction not available for buyout")
		}
		if !current.EndTime.After(now) {
			return repository.Update{}, biddingerrors.Reject(biddingerrors.ErrExpired, "Auction has ended")
		}

		price := current.BuyoutPrice.Decimal
		if current.CurrentPrice.GreaterThan(price) {
			return repository.Update{}, biddingerrors.Reject(biddingerrors.ErrBuyoutExceeded,
				"Current price $%s already exceeds the buyout price", current.CurrentPrice.StringFixed(2))
		}

		final := models.Bid{
			BidID:       utils.GenerateID(),
			AuctionID:   current.AuctionID,
			BidderName:  buyerName,
			BidderEmail: buyerEmail,
			Amount:      price,
			BidTime:     nextBidTime(current, now),
		}

		next := current
		next.Status = models.StatusSold
		next.CurrentPrice = price
		next.TotalBids++
		next.WinnerName = buyerName
		next.WinnerEmail = buyerEmail
		next.EndTime = now
		next.LastBidTime = final.BidTime
		next.LeadingBidder = buyerName

		return repository.Update{
			Auction: next,
			Bid:     &final,
			Events:  []models.Event{models.AuctionSoldEvent(next)},
		}, nil
	})
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to buy out auction %s: %w", auctionID, err)
	}

	return auction, nil
}

// ListAuctions returns every auction in display order
func (s *BiddingService) ListAuctions() ([]models.Auction, error) {
	auctions, err := s.repo.ListAuctions()
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions: %w", err)
	}
	return auctions, nil
}

// GetAuction returns one auction with its most recent bids, newest first
func (s *BiddingService) GetAuction(auctionID string) (models.Auction, []models.Bid, error) {
	if strings.TrimSpace(auctionID) == "" {
		return models.Auction{}, nil, biddingerrors.Reject(biddingerrors.ErrValidationFailed, "Auction ID is required")
	}

	auction, err := s.repo.GetAuction(auctionID)
	if err != nil {
		return models.Auction{}, nil, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}

	bids, err := s.repo.GetRecentBids(auctionID, s.recentBids)
	if err != nil {
		return models.Auction{}, nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}

	return auction, bids, nil
}

func validateParticipant(auctionID, name, email string) error {
	switch {
	case strings.TrimSpace(auctionID) == "":
		return biddingerrors.Reject(biddingerrors.ErrInvalidBid, "Auction ID is required")
	case strings.TrimSpace(name) == "":
		return biddingerrors.Reject(biddingerrors.ErrInvalidBid, "Name is required")
	case strings.TrimSpace(email) == "":
		return biddingerrors.Reject(biddingerrors.ErrInvalidBid, "Email is required")
	}
	return nil
}

// checkOpen rejects bids on auctions that are not active or are past their deadline
func checkOpen(auction models.Auction, now time.Time) error {
	if auction.Status != models.StatusActive {
		return notActive(auction)
	}
	if !auction.EndTime.After(now) {
		return biddingerrors.Reject(biddingerrors.ErrExpired, "Auction has ended")
	}
	return nil
}

func notActive(auction models.Auction) error {
	if auction.Status == models.StatusPending {
		return biddingerrors.Reject(biddingerrors.ErrInvalidState, "Auction has not started yet")
	}
	return biddingerrors.Reject(biddingerrors.ErrInvalidState, "Auction is %s", auction.Status)
}

// nextBidTime keeps bid timestamps strictly increasing within an auction
func nextBidTime(auction models.Auction, now time.Time) time.Time {
	if now.After(auction.LastBidTime) {
		return now
	}
	return auction.LastBidTime.Add(time.Microsecond)
}
