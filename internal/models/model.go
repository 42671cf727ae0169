package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus is the lifecycle state of an auction
type AuctionStatus string

const (
	StatusPending AuctionStatus = "pending"
	StatusActive  AuctionStatus = "active"
	StatusEnded   AuctionStatus = "ended"
	StatusSold    AuctionStatus = "sold"
)

// IsTerminal reports whether no further status change is allowed
func (s AuctionStatus) IsTerminal() bool {
	return s == StatusEnded || s == StatusSold
}

// Auction represents a timed sale of one item
type Auction struct {
	AuctionID            string              `json:"id"`
	Title                string              `json:"title"`
	Description          string              `json:"description"`
	Status               AuctionStatus       `json:"status"`
	StartTime            time.Time           `json:"start_time"`
	EndTime              time.Time           `json:"end_time"`
	StartingPrice        decimal.Decimal     `json:"starting_price"`
	CurrentPrice         decimal.Decimal     `json:"current_price"`
	BuyoutPrice          decimal.NullDecimal `json:"buyout_price"`
	TotalBids            int                 `json:"total_bids"`
	TimeExtensionMinutes int                 `json:"time_extension_minutes"`
	WinnerName           string              `json:"winner_name,omitempty"`
	WinnerEmail          string              `json:"winner_email,omitempty"`
	LeadingBidder        string              `json:"leading_bidder,omitempty"`
	LastBidTime          time.Time           `json:"-"`
}

// HasBuyout reports whether the immediate-purchase path is configured
func (a Auction) HasBuyout() bool {
	return a.BuyoutPrice.Valid
}

// Bid represents an offer recorded against an auction. Immutable once committed.
type Bid struct {
	BidID       string          `json:"id"`
	AuctionID   string          `json:"auction_id"`
	BidderName  string          `json:"bidder_name"`
	BidderEmail string          `json:"bidder_email"`
	Amount      decimal.Decimal `json:"bid_amount"`
	BidTime     time.Time       `json:"bid_time"`
}
