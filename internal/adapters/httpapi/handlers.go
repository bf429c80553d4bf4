package httpapi

import (
	"errors"
	"net/http"

	"bidhaus-auction-service/internal/domain/shared"
	"bidhaus-auction-service/internal/ports/inbound"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// userIDHeader carries the authenticated caller's opaque identifier.
// Authentication itself happens upstream; the service only trusts the id.
const userIDHeader = "X-User-ID"

// Handler exposes the ledger and sweeper over HTTP
type Handler struct {
	auctions inbound.AuctionService
	bids     inbound.BidService
	sweeper  inbound.Sweeper
	logger   zerolog.Logger
}

type HandlerParams struct {
	Auctions inbound.AuctionService
	Bids     inbound.BidService
	Sweeper  inbound.Sweeper
	Logger   zerolog.Logger
}

// NewHandler creates a new API handler
func NewHandler(params HandlerParams) *Handler {
	return &Handler{
		auctions: params.Auctions,
		bids:     params.Bids,
		sweeper:  params.Sweeper,
		logger:   params.Logger.With().Str("component", "http_api").Logger(),
	}
}

type createAuctionRequest struct {
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	StartTime     string          `json:"start_time" binding:"required"`
	EndTime       string          `json:"end_time" binding:"required"`
}

type updateAuctionRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type placeBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// CreateAuction handles POST /api/auctions
func (h *Handler) CreateAuction(c *gin.Context) {
	callerID, ok := h.callerID(c)
	if !ok {
		return
	}

	var req createAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	created, err := h.auctions.CreateAuction(c.Request.Context(), inbound.CreateAuctionRequest{
		CreatorID:     callerID,
		Title:         req.Title,
		Description:   req.Description,
		StartingPrice: req.StartingPrice,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListAuctions handles GET /api/auctions
func (h *Handler) ListAuctions(c *gin.Context) {
	auctions, err := h.auctions.ListAuctions(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, auctions)
}

// GetAuction handles GET /api/auctions/:id
func (h *Handler) GetAuction(c *gin.Context) {
	auctionID, ok := h.auctionID(c)
	if !ok {
		return
	}

	found, err := h.auctions.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// UpdateAuction handles PUT and PATCH /api/auctions/:id. Omitted fields
// keep their current values.
func (h *Handler) UpdateAuction(c *gin.Context) {
	callerID, ok := h.callerID(c)
	if !ok {
		return
	}
	auctionID, ok := h.auctionID(c)
	if !ok {
		return
	}

	var req updateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	updated, err := h.auctions.UpdateAuction(c.Request.Context(), inbound.UpdateAuctionRequest{
		AuctionID:   auctionID,
		RequesterID: callerID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteAuction handles DELETE /api/auctions/:id
func (h *Handler) DeleteAuction(c *gin.Context) {
	callerID, ok := h.callerID(c)
	if !ok {
		return
	}
	auctionID, ok := h.auctionID(c)
	if !ok {
		return
	}

	if err := h.auctions.DeleteAuction(c.Request.Context(), auctionID, callerID); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PlaceBid handles POST /api/auctions/:id/bids
func (h *Handler) PlaceBid(c *gin.Context) {
	callerID, ok := h.callerID(c)
	if !ok {
		return
	}
	auctionID, ok := h.auctionID(c)
	if !ok {
		return
	}

	var req placeBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	placed, err := h.bids.PlaceBid(c.Request.Context(), inbound.PlaceBidRequest{
		AuctionID: auctionID,
		BidderID:  callerID,
		Amount:    req.Amount,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, placed)
}

// ListBids handles GET /api/auctions/:id/bids
func (h *Handler) ListBids(c *gin.Context) {
	auctionID, ok := h.auctionID(c)
	if !ok {
		return
	}

	bids, err := h.bids.ListBids(c.Request.Context(), auctionID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, bids)
}

// ListMyBids handles GET /api/my-bids
func (h *Handler) ListMyBids(c *gin.Context) {
	callerID, ok := h.callerID(c)
	if !ok {
		return
	}

	bids, err := h.bids.ListUserBids(c.Request.Context(), callerID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, bids)
}

// ListMyAuctions handles GET /api/my-auctions
func (h *Handler) ListMyAuctions(c *gin.Context) {
	callerID, ok := h.callerID(c)
	if !ok {
		return
	}

	auctions, err := h.auctions.ListUserAuctions(c.Request.Context(), callerID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, auctions)
}

// RunSweep handles POST /internal/sweep
func (h *Handler) RunSweep(c *gin.Context) {
	report, err := h.sweeper.RunExpirySweep(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}

	failures := make([]gin.H, 0, len(report.Failures))
	for _, failure := range report.Failures {
		failures = append(failures, gin.H{
			"auction_id": failure.AuctionID,
			"error":      failure.Err.Error(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"closed_count": report.ClosedCount,
		"failures":     failures,
	})
}

// callerID reads the authenticated user id from the request header,
// answering 401 itself when absent or malformed
func (h *Handler) callerID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader(userIDHeader)
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "authentication required"})
		return uuid.Nil, false
	}

	callerID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid user id"})
		return uuid.Nil, false
	}

	return callerID, true
}

// auctionID parses the :id path parameter, answering 404 itself when it
// is not a valid id
func (h *Handler) auctionID(c *gin.Context) (uuid.UUID, bool) {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "auction not found"})
		return uuid.Nil, false
	}
	return auctionID, true
}

// renderError maps domain errors to distinct responses, mirroring the
// rejection taxonomy of the ledger
func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shared.ErrAuctionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "auction not found"})
	case errors.Is(err, shared.ErrAuctionClosed):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "this auction is closed"})
	case errors.Is(err, shared.ErrSelfBidNotAllowed):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "you cannot bid on your own auction"})
	case errors.Is(err, shared.ErrBidTooLow):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "bid must be higher than current price"})
	case errors.Is(err, shared.ErrInvalidEndTime),
		errors.Is(err, shared.ErrInvalidStartingPrice),
		errors.Is(err, shared.ErrInvalidTimeFormat):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.Is(err, shared.ErrNotCreator):
		c.JSON(http.StatusForbidden, gin.H{"detail": err.Error()})
	case errors.Is(err, shared.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "storage temporarily unavailable"})
	default:
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
	}
}
