package server

import (
	handler "live-auction/services/bidding/handler"
	"live-auction/services/realtime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(biddingService handler.BiddingServiceInterface, gateway *realtime.Gateway, originAllowed func(origin string) bool) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(CORSMiddleware(originAllowed))

	biddingHandler := handler.NewBiddingHandler(biddingService)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auctions := router.Group("/api/auctions")
	{
		auctions.GET("", biddingHandler.ListAuctionsHandler)
		auctions.GET("/:auction_id", biddingHandler.GetAuctionHandler)
		auctions.POST("/:auction_id/bid", biddingHandler.PlaceBidHandler)
		auctions.POST("/:auction_id/buynow", biddingHandler.BuyNowHandler)
	}

	if gateway != nil {
		router.GET("/ws", gateway.ServeWS)
	}

	return router
}
