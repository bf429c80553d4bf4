package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"bidhaus-auction-service/internal/domain/auction"
	"bidhaus-auction-service/internal/domain/bid"
	"bidhaus-auction-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is a concurrency-safe in-memory implementation of the auction and
// bid repositories. Used by the unit tests and the "memory" storage mode.
type Store struct {
	mu       sync.RWMutex
	auctions map[uuid.UUID]auction.Auction
	bids     map[uuid.UUID][]bid.Bid // auctionID -> bids in placement order
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		auctions: make(map[uuid.UUID]auction.Auction),
		bids:     make(map[uuid.UUID][]bid.Bid),
	}
}

// Auctions returns the auction repository view of the store
func (s *Store) Auctions() *AuctionRepository {
	return &AuctionRepository{store: s}
}

// Bids returns the bid repository view of the store
func (s *Store) Bids() *BidRepository {
	return &BidRepository{store: s}
}

// AuctionRepository implements outbound.AuctionRepository on the store
type AuctionRepository struct {
	store *Store
}

func (r *AuctionRepository) Create(_ context.Context, a *auction.Auction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.auctions[a.ID] = *a
	return nil
}

func (r *AuctionRepository) GetByID(_ context.Context, id uuid.UUID) (*auction.Auction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored, ok := r.store.auctions[id]
	if !ok {
		return nil, shared.ErrAuctionNotFound
	}
	return &stored, nil
}

func (r *AuctionRepository) List(_ context.Context) ([]*auction.Auction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	auctions := make([]*auction.Auction, 0, len(r.store.auctions))
	for id := range r.store.auctions {
		stored := r.store.auctions[id]
		auctions = append(auctions, &stored)
	}
	sort.Slice(auctions, func(i, j int) bool {
		return auctions[i].CreatedAt.After(auctions[j].CreatedAt)
	})
	return auctions, nil
}

func (r *AuctionRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*auction.Auction, error) {
	all, _ := r.List(ctx)
	owned := make([]*auction.Auction, 0)
	for _, a := range all {
		if a.CreatorID == creatorID {
			owned = append(owned, a)
		}
	}
	return owned, nil
}

func (r *AuctionRepository) ListExpiredActive(ctx context.Context, now time.Time) ([]*auction.Auction, error) {
	all, _ := r.List(ctx)
	expired := make([]*auction.Auction, 0)
	for _, a := range all {
		if a.IsActive && a.Expired(now) {
			expired = append(expired, a)
		}
	}
	return expired, nil
}

// Update writes only the listing fields, leaving price and closed state
// to their own guarded writers
func (r *AuctionRepository) Update(_ context.Context, a *auction.Auction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.auctions[a.ID]
	if !ok {
		return shared.ErrAuctionNotFound
	}
	stored.Title = a.Title
	stored.Description = a.Description
	stored.UpdatedAt = a.UpdatedAt
	r.store.auctions[a.ID] = stored
	return nil
}

func (r *AuctionRepository) Close(_ context.Context, a *auction.Auction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.auctions[a.ID]
	if !ok {
		return shared.ErrAuctionNotFound
	}
	if !stored.IsActive {
		return shared.ErrAuctionClosed
	}
	r.store.auctions[a.ID] = *a
	return nil
}

func (r *AuctionRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.auctions[id]; !ok {
		return shared.ErrAuctionNotFound
	}
	delete(r.store.auctions, id)
	delete(r.store.bids, id)
	return nil
}

// BidRepository implements outbound.BidRepository on the store
type BidRepository struct {
	store *Store
}

// Place records the bid and raises the auction's price in one step,
// re-validating against the stored state under the store lock.
func (r *BidRepository) Place(_ context.Context, b *bid.Bid, expectedCurrentPrice decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.auctions[b.AuctionID]
	if !ok {
		return shared.ErrAuctionNotFound
	}
	if !stored.IsActive {
		return shared.ErrAuctionClosed
	}
	if !stored.CurrentPrice.Equal(expectedCurrentPrice) || !b.Amount.GreaterThan(stored.CurrentPrice) {
		return shared.ErrBidTooLow
	}

	r.store.bids[b.AuctionID] = append(r.store.bids[b.AuctionID], *b)
	stored.CurrentPrice = b.Amount
	stored.UpdatedAt = b.CreatedAt
	r.store.auctions[b.AuctionID] = stored
	return nil
}

func (r *BidRepository) ListByAuction(_ context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return sortedByLead(r.store.bids[auctionID]), nil
}

func (r *BidRepository) ListByBidder(_ context.Context, bidderID uuid.UUID) ([]*bid.Bid, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	placed := make([]*bid.Bid, 0)
	for auctionID := range r.store.bids {
		for i := range r.store.bids[auctionID] {
			stored := r.store.bids[auctionID][i]
			if stored.BidderID == bidderID {
				placed = append(placed, &stored)
			}
		}
	}
	sort.Slice(placed, func(i, j int) bool {
		return placed[i].CreatedAt.Before(placed[j].CreatedAt)
	})
	return placed, nil
}

func (r *BidRepository) Highest(_ context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored := r.store.bids[auctionID]
	candidates := make([]*bid.Bid, 0, len(stored))
	for i := range stored {
		b := stored[i]
		candidates = append(candidates, &b)
	}

	leader := bid.Leading(candidates)
	if leader == nil {
		return nil, shared.ErrNoBidsFound
	}
	return leader, nil
}

// sortedByLead orders bids highest amount first, earliest first within an
// amount, matching the leading-bid rule.
func sortedByLead(stored []bid.Bid) []*bid.Bid {
	ranked := make([]*bid.Bid, 0, len(stored))
	for i := range stored {
		b := stored[i]
		ranked = append(ranked, &b)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if !ranked[i].Amount.Equal(ranked[j].Amount) {
			return ranked[i].Amount.GreaterThan(ranked[j].Amount)
		}
		return ranked[i].CreatedAt.Before(ranked[j].CreatedAt)
	})
	return ranked
}
