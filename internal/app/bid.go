package app

import (
	"context"

	"bidhaus-auction-service/internal/domain/bid"
	"bidhaus-auction-service/internal/domain/shared"
	"bidhaus-auction-service/internal/ports/inbound"
	"bidhaus-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BidService implements the bid-side ledger operations. It shares the
// per-auction lock table with the auction service so bid placement and
// closing are mutually exclusive for a given auction.
type BidService struct {
	bidRepo     outbound.BidRepository
	auctionRepo outbound.AuctionRepository
	auctions    *AuctionService
	locks       *LockTable
	clock       outbound.Clock
	logger      zerolog.Logger
}

type BidServiceParams struct {
	BidRepo     outbound.BidRepository
	AuctionRepo outbound.AuctionRepository
	Auctions    *AuctionService
	Locks       *LockTable
	Clock       outbound.Clock
	Logger      zerolog.Logger
}

// NewBidService creates a new bid service
func NewBidService(params BidServiceParams) *BidService {
	return &BidService{
		bidRepo:     params.BidRepo,
		auctionRepo: params.AuctionRepo,
		auctions:    params.Auctions,
		locks:       params.Locks,
		clock:       params.Clock,
		logger:      params.Logger.With().Str("component", "bid_service").Logger(),
	}
}

// PlaceBid validates and applies a bid on an auction. The whole operation
// runs inside the auction's critical section: the auction is lazily closed
// first if its end time has passed, then the bid is checked against the
// closed flag, the creator, and the current price, and finally recorded
// together with the price update.
func (service *BidService) PlaceBid(ctx context.Context, req inbound.PlaceBidRequest) (*bid.Bid, error) {
	service.logger.Info().
		Str("auction_id", req.AuctionID.String()).
		Str("bidder_id", req.BidderID.String()).
		Str("amount", req.Amount.String()).
		Msg("Attempting to place bid")

	if err := service.locks.Acquire(ctx, req.AuctionID); err != nil {
		return nil, err
	}
	defer service.locks.Release(req.AuctionID)

	current, err := service.auctionRepo.GetByID(ctx, req.AuctionID)
	if err != nil {
		service.logger.Warn().Err(err).Str("auction_id", req.AuctionID.String()).Msg("Auction lookup failed")
		return nil, err
	}

	// Lazy close: a stale-but-unswept auction must be closed before the
	// bid is evaluated, never after.
	if current.IsActive && current.Expired(service.clock.Now()) {
		if _, err := service.auctions.closeLocked(ctx, current); err != nil {
			return nil, err
		}
	}

	if !current.CanBid() {
		service.logger.Warn().Str("auction_id", req.AuctionID.String()).Msg("Auction is closed")
		return nil, shared.ErrAuctionClosed
	}

	if req.BidderID == current.CreatorID {
		service.logger.Warn().
			Str("auction_id", req.AuctionID.String()).
			Str("bidder_id", req.BidderID.String()).
			Msg("Creator attempted to bid on own auction")
		return nil, shared.ErrSelfBidNotAllowed
	}

	newBid := bid.New(req.AuctionID, req.BidderID, req.Amount, service.clock.Now())

	if !newBid.Outbids(current.CurrentPrice) {
		service.logger.Warn().
			Str("auction_id", req.AuctionID.String()).
			Str("current_price", current.CurrentPrice.String()).
			Str("amount", req.Amount.String()).
			Msg("Bid not higher than current price")
		return nil, shared.ErrBidTooLow
	}

	if err := service.bidRepo.Place(ctx, newBid, current.CurrentPrice); err != nil {
		service.logger.Error().Err(err).Str("bid_id", newBid.ID.String()).Msg("Failed to record bid")
		return nil, err
	}

	current.RaisePrice(newBid.Amount, newBid.CreatedAt)

	service.logger.Info().
		Str("bid_id", newBid.ID.String()).
		Str("auction_id", newBid.AuctionID.String()).
		Str("bidder_id", newBid.BidderID.String()).
		Str("amount", newBid.Amount.String()).
		Msg("Bid placed")

	return newBid, nil
}

// ListBids retrieves the bids on an auction, leading bid first
func (service *BidService) ListBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	if _, err := service.auctionRepo.GetByID(ctx, auctionID); err != nil {
		return nil, err
	}
	return service.bidRepo.ListByAuction(ctx, auctionID)
}

// ListUserBids retrieves all bids placed by one user
func (service *BidService) ListUserBids(ctx context.Context, bidderID uuid.UUID) ([]*bid.Bid, error) {
	return service.bidRepo.ListByBidder(ctx, bidderID)
}
