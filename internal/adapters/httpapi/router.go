package httpapi

import (
	"bidhaus-auction-service/internal/ports/inbound"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SetupRouter configures the gin routes for the marketplace API
func SetupRouter(auctions inbound.AuctionService, bids inbound.BidService, sweeper inbound.Sweeper, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	handler := NewHandler(HandlerParams{
		Auctions: auctions,
		Bids:     bids,
		Sweeper:  sweeper,
		Logger:   logger,
	})

	api := router.Group("/api")
	{
		api.GET("/auctions", handler.ListAuctions)
		api.POST("/auctions", handler.CreateAuction)
		api.GET("/auctions/:id", handler.GetAuction)
		api.PUT("/auctions/:id", handler.UpdateAuction)
		api.PATCH("/auctions/:id", handler.UpdateAuction)
		api.DELETE("/auctions/:id", handler.DeleteAuction)
		api.GET("/auctions/:id/bids", handler.ListBids)
		api.POST("/auctions/:id/bids", handler.PlaceBid)
		api.GET("/my-bids", handler.ListMyBids)
		api.GET("/my-auctions", handler.ListMyAuctions)
	}

	// operational trigger for the expiry sweep, not part of the public API
	router.POST("/internal/sweep", handler.RunSweep)

	return router
}
