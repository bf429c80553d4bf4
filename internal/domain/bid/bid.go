package bid

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid is an immutable offer of an amount by a user on an auction.
// Once created a bid is never updated or deleted.
type Bid struct {
	ID        uuid.UUID       `json:"id"`
	AuctionID uuid.UUID       `json:"auction_id"`
	BidderID  uuid.UUID       `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// New creates a bid record stamped with the given time
func New(auctionID, bidderID uuid.UUID, amount decimal.Decimal, now time.Time) *Bid {
	return &Bid{
		ID:        uuid.New(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: now,
	}
}

// Outbids reports whether the bid strictly exceeds the given price.
// A bid equal to the current price does not outbid it.
func (b *Bid) Outbids(price decimal.Decimal) bool {
	return b.Amount.GreaterThan(price)
}

// Leading selects the leading bid from a set of bids on one auction:
// the highest amount, with ties broken by earliest creation time so the
// first bid at a given amount keeps the lead. Returns nil for no bids.
func Leading(bids []*Bid) *Bid {
	var leader *Bid
	for _, b := range bids {
		if leader == nil {
			leader = b
			continue
		}
		switch {
		case b.Amount.GreaterThan(leader.Amount):
			leader = b
		case b.Amount.Equal(leader.Amount) && b.CreatedAt.Before(leader.CreatedAt):
			leader = b
		}
	}
	return leader
}
