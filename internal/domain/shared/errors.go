package shared

import "errors"

// Domain-specific errors
var (
	// Auction errors
	ErrAuctionNotFound      = errors.New("auction not found")
	ErrAuctionClosed        = errors.New("auction is closed")
	ErrInvalidEndTime       = errors.New("end time must be after start time")
	ErrInvalidStartingPrice = errors.New("starting price must not be negative")
	ErrInvalidTimeFormat    = errors.New("invalid time format")
	ErrNotCreator           = errors.New("only the auction creator may do this")

	// Bid errors
	ErrBidTooLow         = errors.New("bid must be higher than current price")
	ErrSelfBidNotAllowed = errors.New("cannot bid on your own auction")
	ErrNoBidsFound       = errors.New("no bids found")

	// Storage errors; retryable, unlike the business rejections above
	ErrStoreUnavailable = errors.New("store unavailable")
)
