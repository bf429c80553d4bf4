package shared

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CloseResult reports the outcome of a close-if-expired call
type CloseResult struct {
	AuctionID  uuid.UUID
	Closed     bool // false when the auction was already inactive or not yet expired
	WinnerID   *uuid.UUID
	FinalPrice decimal.Decimal
	ClosedAt   *time.Time
}

// SweepFailure records one auction the sweep could not close
type SweepFailure struct {
	AuctionID uuid.UUID
	Err       error
}

// SweepReport summarizes one run of the expiry sweep
type SweepReport struct {
	ClosedCount int
	Failures    []SweepFailure
}
