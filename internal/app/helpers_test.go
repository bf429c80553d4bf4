package app

import (
	"context"
	"sync"
	"time"

	"bidhaus-auction-service/internal/adapters/memory"
	"bidhaus-auction-service/internal/domain/auction"
	"bidhaus-auction-service/internal/ports/inbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// fakeClock is a manually advanced clock for deterministic expiry tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store    *memory.Store
	clock    *fakeClock
	locks    *LockTable
	auctions *AuctionService
	bids     *BidService
	sweeper  *Sweeper
}

func newFixture() *fixture {
	store := memory.NewStore()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	locks := NewLockTable()

	auctions := NewAuctionService(AuctionServiceParams{
		AuctionRepo: store.Auctions(),
		BidRepo:     store.Bids(),
		Locks:       locks,
		Clock:       clock,
		Logger:      zerolog.Nop(),
	})
	bids := NewBidService(BidServiceParams{
		BidRepo:     store.Bids(),
		AuctionRepo: store.Auctions(),
		Auctions:    auctions,
		Locks:       locks,
		Clock:       clock,
		Logger:      zerolog.Nop(),
	})
	sweeper := NewSweeper(SweeperParams{
		Closer:      auctions,
		AuctionRepo: store.Auctions(),
		Clock:       clock,
		MaxWorkers:  4,
		Logger:      zerolog.Nop(),
	})

	return &fixture{
		store:    store,
		clock:    clock,
		locks:    locks,
		auctions: auctions,
		bids:     bids,
		sweeper:  sweeper,
	}
}

// openAuction creates an auction that started an hour ago and ends in an
// hour, at the given starting price
func (f *fixture) openAuction(creatorID uuid.UUID, startingPrice string) *auction.Auction {
	created, err := f.auctions.CreateAuction(context.Background(), inbound.CreateAuctionRequest{
		CreatorID:     creatorID,
		Title:         "Test auction",
		Description:   "Test description",
		StartingPrice: decimal.RequireFromString(startingPrice),
		StartTime:     f.clock.Now().Add(-time.Hour).Format(time.RFC3339),
		EndTime:       f.clock.Now().Add(time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		panic(err)
	}
	return created
}

func (f *fixture) placeBid(auctionID, bidderID uuid.UUID, amount string) error {
	_, err := f.bids.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    decimal.RequireFromString(amount),
	})
	return err
}
