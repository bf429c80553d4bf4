package outbound

import (
	"context"
	"time"

	"bidhaus-auction-service/internal/domain/auction"
	"bidhaus-auction-service/internal/domain/bid"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuctionRepository defines the interface for auction data operations
type AuctionRepository interface {
	// Create persists a new auction
	Create(ctx context.Context, auction *auction.Auction) error

	// GetByID retrieves an auction by ID
	GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error)

	// List retrieves all auctions, newest first
	List(ctx context.Context) ([]*auction.Auction, error)

	// ListByCreator retrieves the auctions created by one user
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*auction.Auction, error)

	// ListExpiredActive retrieves auctions that are still active but whose
	// end time is at or before the given instant
	ListExpiredActive(ctx context.Context, now time.Time) ([]*auction.Auction, error)

	// Update persists an auction's listing details (title, description).
	// Prices, times, and the closed state are never written here.
	Update(ctx context.Context, auction *auction.Auction) error

	// Close writes the closed state of an auction. The write is guarded:
	// it only applies while the stored row is still active, and returns
	// ErrAuctionClosed if another closer got there first.
	Close(ctx context.Context, auction *auction.Auction) error

	// Delete removes an auction
	Delete(ctx context.Context, id uuid.UUID) error
}

// BidRepository defines the interface for bid data operations
type BidRepository interface {
	// Place atomically records an accepted bid and raises the auction's
	// current price to the bid amount. expectedCurrentPrice is the price
	// the caller validated against; the write fails with ErrBidTooLow if
	// the stored price no longer matches it.
	Place(ctx context.Context, bid *bid.Bid, expectedCurrentPrice decimal.Decimal) error

	// ListByAuction retrieves all bids for an auction, highest amount
	// first, earliest first within an amount
	ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)

	// ListByBidder retrieves all bids placed by one user
	ListByBidder(ctx context.Context, bidderID uuid.UUID) ([]*bid.Bid, error)

	// Highest retrieves the leading bid for an auction, or ErrNoBidsFound
	Highest(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error)
}
