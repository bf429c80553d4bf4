package inbound

import (
	"context"

	"bidhaus-auction-service/internal/domain/auction"
	"bidhaus-auction-service/internal/domain/bid"
	"bidhaus-auction-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuctionService defines the auction-side ledger operations
type AuctionService interface {
	// CreateAuction creates a new open auction
	CreateAuction(ctx context.Context, req CreateAuctionRequest) (*auction.Auction, error)

	// GetAuction retrieves an auction by ID
	GetAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error)

	// ListAuctions retrieves all auctions
	ListAuctions(ctx context.Context) ([]*auction.Auction, error)

	// ListUserAuctions retrieves the auctions created by one user
	ListUserAuctions(ctx context.Context, creatorID uuid.UUID) ([]*auction.Auction, error)

	// UpdateAuction rewrites an auction's listing details; only its
	// creator may do so
	UpdateAuction(ctx context.Context, req UpdateAuctionRequest) (*auction.Auction, error)

	// CloseIfExpired closes the auction if it is active and past its end
	// time, assigning the winner from the leading bid. Idempotent.
	CloseIfExpired(ctx context.Context, auctionID uuid.UUID) (*shared.CloseResult, error)

	// DeleteAuction removes an auction; only its creator may do so
	DeleteAuction(ctx context.Context, auctionID, requesterID uuid.UUID) error
}

// BidService defines the bid-side ledger operations
type BidService interface {
	// PlaceBid validates and applies a bid on an auction
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*bid.Bid, error)

	// ListBids retrieves the bids on an auction, leading bid first
	ListBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)

	// ListUserBids retrieves all bids placed by one user
	ListUserBids(ctx context.Context, bidderID uuid.UUID) ([]*bid.Bid, error)
}

// Sweeper closes every expired-but-active auction in one batch pass
type Sweeper interface {
	RunExpirySweep(ctx context.Context) (*shared.SweepReport, error)
}

// request to create an auction
type CreateAuctionRequest struct {
	CreatorID     uuid.UUID       `json:"creator_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	StartTime     string          `json:"start_time"`
	EndTime       string          `json:"end_time"`
}

// request to update an auction's listing details; nil fields are left
// unchanged
type UpdateAuctionRequest struct {
	AuctionID   uuid.UUID `json:"auction_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
}

// request to place a bid
type PlaceBidRequest struct {
	AuctionID uuid.UUID       `json:"auction_id"`
	BidderID  uuid.UUID       `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
}
