package helpers

import (
	model "live-auction/internal/models"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	BidderName  string          `json:"bidder_name" binding:"required"`
	BidderEmail string          `json:"bidder_email" binding:"required,email"`
	BidAmount   decimal.Decimal `json:"bid_amount"`
}

type BuyNowRequest struct {
	BuyerName  string `json:"buyer_name" binding:"required"`
	BuyerEmail string `json:"buyer_email" binding:"required,email"`
}

type PlaceBidResponse struct {
	Auction model.Auction `json:"auction"`
	Bid     model.Bid     `json:"bid"`
}

type AuctionResponse struct {
	Auction model.Auction `json:"auction"`
}

type AuctionDetailResponse struct {
	Auction model.Auction `json:"auction"`
	Bids    []model.Bid   `json:"bids"`
}
