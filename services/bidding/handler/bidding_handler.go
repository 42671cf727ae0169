package handler

import (
	"net/http"

	model "live-auction/internal/models"
	"live-auction/services/bidding/helpers"
	"live-auction/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=bidding_handler.go -destination=mock_bidding_service.go -package=handler

type BiddingServiceInterface interface {
	ListAuctions() ([]model.Auction, error)
	GetAuction(auctionID string) (model.Auction, []model.Bid, error)
	PlaceBid(auctionID, bidderName, bidderEmail string, amount decimal.Decimal) (model.Auction, model.Bid, error)
	BuyNow(auctionID, buyerName, buyerEmail string) (model.Auction, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// respondError writes a rejection or failure and logs it; internal failures at error level
func respondError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, kind, message := helpers.MapErrorToHTTP(err)
	utils.JSONError(c, status, kind, message)

	fields["handler"] = handlerName
	fields["error"] = err.Error()
	fields["kind"] = kind
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
		return
	}
	utils.Warn(handlerName+": request rejected", fields)
}

// ListAuctionsHandler handles GET /api/auctions
func (h *BiddingHandler) ListAuctionsHandler(c *gin.Context) {
	auctions, err := h.service.ListAuctions()
	if err != nil {
		respondError(c, "ListAuctionsHandler", err, map[string]any{})
		return
	}

	if auctions == nil {
		auctions = []model.Auction{}
	}

	utils.JSONResponse(c, http.StatusOK, auctions, "auctions retrieved successfully")
	helpers.LogSuccess("ListAuctionsHandler", "auctions retrieved successfully", map[string]any{
		"count": len(auctions),
	})
}

// GetAuctionHandler handles GET /api/auctions/:auction_id
func (h *BiddingHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, bids, err := h.service.GetAuction(auctionID)
	if err != nil {
		respondError(c, "GetAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	if bids == nil {
		bids = []model.Bid{}
	}

	utils.JSONResponse(c, http.StatusOK, helpers.AuctionDetailResponse{Auction: auction, Bids: bids}, "auction retrieved successfully")
	helpers.LogSuccess("GetAuctionHandler", "auction retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"bids_count": len(bids),
	})
}

// PlaceBidHandler handles POST /api/auctions/:auction_id/bid
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	auction, bid, err := h.service.PlaceBid(auctionID, req.BidderName, req.BidderEmail, req.BidAmount)
	if err != nil {
		respondError(c, "PlaceBidHandler", err, map[string]any{
			"auction_id": auctionID,
			"bidder":     req.BidderName,
			"amount":     req.BidAmount.String(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.PlaceBidResponse{Auction: auction, Bid: bid}, "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": auctionID,
		"bidder":     bid.BidderName,
		"amount":     bid.Amount.String(),
		"end_time":   auction.EndTime,
	})
}

// BuyNowHandler handles POST /api/auctions/:auction_id/buynow
func (h *BiddingHandler) BuyNowHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.BuyNowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "BuyNowHandler", err)
		return
	}

	auction, err := h.service.BuyNow(auctionID, req.BuyerName, req.BuyerEmail)
	if err != nil {
		respondError(c, "BuyNowHandler", err, map[string]any{
			"auction_id": auctionID,
			"buyer":      req.BuyerName,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.AuctionResponse{Auction: auction}, "auction purchased successfully")
	helpers.LogSuccess("BuyNowHandler", "auction purchased successfully", map[string]any{
		"auction_id": auctionID,
		"buyer":      req.BuyerName,
		"price":      auction.CurrentPrice.String(),
	})
}
