package auction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Auction represents a timed listing that is open for bidding until its
// end time passes and it is closed.
type Auction struct {
	ID            uuid.UUID       `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	CreatorID     uuid.UUID       `json:"creator_id"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	WinnerID      *uuid.UUID      `json:"winner_id,omitempty"`
	IsActive      bool            `json:"is_active"`
	ClosedAt      *time.Time      `json:"closed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// New constructs an open auction. The current price always starts at the
// starting price; it only moves when a bid is accepted.
func New(creatorID uuid.UUID, title, description string, startingPrice decimal.Decimal, startTime, endTime, now time.Time) *Auction {
	return &Auction{
		ID:            uuid.New(),
		Title:         title,
		Description:   description,
		CreatorID:     creatorID,
		StartingPrice: startingPrice,
		CurrentPrice:  startingPrice,
		StartTime:     startTime,
		EndTime:       endTime,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Expired reports whether the auction's end time has passed. The end time
// itself counts as expired.
func (a *Auction) Expired(now time.Time) bool {
	return !a.EndTime.After(now)
}

// CanBid returns true if the auction is still accepting bids
func (a *Auction) CanBid() bool {
	return a.IsActive
}

// RaisePrice moves the current price up to an accepted bid amount.
// Lower or equal amounts are ignored; the price never decreases.
func (a *Auction) RaisePrice(amount decimal.Decimal, now time.Time) {
	if amount.GreaterThan(a.CurrentPrice) {
		a.CurrentPrice = amount
		a.UpdatedAt = now
	}
}

// UpdateDetails rewrites the listing metadata. Prices, times, and the
// closed state are never touched here; a nil field keeps its value.
func (a *Auction) UpdateDetails(title, description *string, now time.Time) {
	if title != nil {
		a.Title = *title
	}
	if description != nil {
		a.Description = *description
	}
	a.UpdatedAt = now
}

// Close flips the auction inactive and records the winner, if any.
// The transition is one-way; a closed auction is never reopened.
func (a *Auction) Close(winnerID *uuid.UUID, now time.Time) {
	if !a.IsActive {
		return
	}
	a.IsActive = false
	a.WinnerID = winnerID
	a.ClosedAt = &now
	a.UpdatedAt = now
}
