package app

import (
	"context"
	"errors"
	"time"

	"bidhaus-auction-service/internal/domain/auction"
	"bidhaus-auction-service/internal/domain/shared"
	"bidhaus-auction-service/internal/ports/inbound"
	"bidhaus-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuctionService implements the auction-side ledger operations
type AuctionService struct {
	auctionRepo outbound.AuctionRepository
	bidRepo     outbound.BidRepository
	locks       *LockTable
	clock       outbound.Clock
	deadlines   outbound.DeadlineIndex
	logger      zerolog.Logger
}

type AuctionServiceParams struct {
	AuctionRepo outbound.AuctionRepository
	BidRepo     outbound.BidRepository
	Locks       *LockTable
	Clock       outbound.Clock
	Deadlines   outbound.DeadlineIndex
	Logger      zerolog.Logger
}

// NewAuctionService creates a new auction service
func NewAuctionService(params AuctionServiceParams) *AuctionService {
	return &AuctionService{
		auctionRepo: params.AuctionRepo,
		bidRepo:     params.BidRepo,
		locks:       params.Locks,
		clock:       params.Clock,
		deadlines:   params.Deadlines,
		logger:      params.Logger.With().Str("component", "auction_service").Logger(),
	}
}

// SetDeadlineIndex wires the deadline index after construction; the
// scheduler itself needs the service to close auctions, so the two are
// linked in this order.
func (service *AuctionService) SetDeadlineIndex(deadlines outbound.DeadlineIndex) {
	service.deadlines = deadlines
}

// CreateAuction creates a new open auction
func (service *AuctionService) CreateAuction(ctx context.Context, req inbound.CreateAuctionRequest) (*auction.Auction, error) {
	service.logger.Info().
		Str("creator_id", req.CreatorID.String()).
		Str("title", req.Title).
		Str("starting_price", req.StartingPrice.String()).
		Msg("Attempting to create auction")

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		service.logger.Warn().Err(err).Str("start_time", req.StartTime).Msg("Invalid start time format")
		return nil, shared.ErrInvalidTimeFormat
	}

	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		service.logger.Warn().Err(err).Str("end_time", req.EndTime).Msg("Invalid end time format")
		return nil, shared.ErrInvalidTimeFormat
	}

	if !endTime.After(startTime) {
		service.logger.Warn().
			Time("start_time", startTime).
			Time("end_time", endTime).
			Msg("End time must be after start time")
		return nil, shared.ErrInvalidEndTime
	}

	if req.StartingPrice.IsNegative() {
		service.logger.Warn().Str("starting_price", req.StartingPrice.String()).Msg("Negative starting price")
		return nil, shared.ErrInvalidStartingPrice
	}

	newAuction := auction.New(req.CreatorID, req.Title, req.Description, req.StartingPrice, startTime, endTime, service.clock.Now())

	if err := service.auctionRepo.Create(ctx, newAuction); err != nil {
		service.logger.Error().Err(err).Str("auction_id", newAuction.ID.String()).Msg("Failed to save auction")
		return nil, err
	}

	if service.deadlines != nil {
		if err := service.deadlines.Schedule(newAuction.ID, newAuction.EndTime); err != nil {
			// Creation still succeeds; the periodic sweep will pick the
			// auction up when it expires.
			service.logger.Warn().Err(err).Str("auction_id", newAuction.ID.String()).Msg("Failed to index auction deadline")
		}
	}

	service.logger.Info().
		Str("auction_id", newAuction.ID.String()).
		Time("end_time", newAuction.EndTime).
		Msg("Auction created")

	return newAuction, nil
}

// GetAuction retrieves an auction by ID
func (service *AuctionService) GetAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error) {
	return service.auctionRepo.GetByID(ctx, auctionID)
}

// ListAuctions retrieves all auctions
func (service *AuctionService) ListAuctions(ctx context.Context) ([]*auction.Auction, error) {
	return service.auctionRepo.List(ctx)
}

// ListUserAuctions retrieves the auctions created by one user
func (service *AuctionService) ListUserAuctions(ctx context.Context, creatorID uuid.UUID) ([]*auction.Auction, error) {
	return service.auctionRepo.ListByCreator(ctx, creatorID)
}

// UpdateAuction rewrites an auction's listing details; only its creator
// may do so. The write happens under the auction's lock so it cannot
// interleave with a close.
func (service *AuctionService) UpdateAuction(ctx context.Context, req inbound.UpdateAuctionRequest) (*auction.Auction, error) {
	if err := service.locks.Acquire(ctx, req.AuctionID); err != nil {
		return nil, err
	}
	defer service.locks.Release(req.AuctionID)

	current, err := service.auctionRepo.GetByID(ctx, req.AuctionID)
	if err != nil {
		return nil, err
	}

	if current.CreatorID != req.RequesterID {
		service.logger.Warn().
			Str("auction_id", req.AuctionID.String()).
			Str("requester_id", req.RequesterID.String()).
			Msg("Update refused, requester is not the creator")
		return nil, shared.ErrNotCreator
	}

	current.UpdateDetails(req.Title, req.Description, service.clock.Now())

	if err := service.auctionRepo.Update(ctx, current); err != nil {
		service.logger.Error().Err(err).Str("auction_id", req.AuctionID.String()).Msg("Failed to update auction")
		return nil, err
	}

	service.logger.Info().Str("auction_id", req.AuctionID.String()).Msg("Auction updated")
	return current, nil
}

// CloseIfExpired closes the auction if it is active and past its end time,
// assigning the winner from the leading bid. Calling it on an already
// closed or not-yet-expired auction is a no-op.
func (service *AuctionService) CloseIfExpired(ctx context.Context, auctionID uuid.UUID) (*shared.CloseResult, error) {
	if err := service.locks.Acquire(ctx, auctionID); err != nil {
		return nil, err
	}
	defer service.locks.Release(auctionID)

	current, err := service.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	return service.closeLocked(ctx, current)
}

// closeLocked applies the closing transition. The caller must hold the
// auction's lock.
func (service *AuctionService) closeLocked(ctx context.Context, current *auction.Auction) (*shared.CloseResult, error) {
	result := &shared.CloseResult{
		AuctionID:  current.ID,
		FinalPrice: current.CurrentPrice,
		WinnerID:   current.WinnerID,
		ClosedAt:   current.ClosedAt,
	}

	if !current.IsActive || !current.Expired(service.clock.Now()) {
		return result, nil
	}

	var winnerID *uuid.UUID
	highest, err := service.bidRepo.Highest(ctx, current.ID)
	switch {
	case err == nil:
		winnerID = &highest.BidderID
	case errors.Is(err, shared.ErrNoBidsFound):
		// closes with no winner
	default:
		service.logger.Error().Err(err).Str("auction_id", current.ID.String()).Msg("Failed to get leading bid")
		return nil, err
	}

	current.Close(winnerID, service.clock.Now())

	if err := service.auctionRepo.Close(ctx, current); err != nil {
		if errors.Is(err, shared.ErrAuctionClosed) {
			// another closer won the race; the auction is closed either way
			service.logger.Debug().Str("auction_id", current.ID.String()).Msg("Auction already closed by concurrent closer")
			return result, nil
		}
		service.logger.Error().Err(err).Str("auction_id", current.ID.String()).Msg("Failed to persist auction close")
		return nil, err
	}

	result.Closed = true
	result.WinnerID = current.WinnerID
	result.FinalPrice = current.CurrentPrice
	result.ClosedAt = current.ClosedAt

	event := service.logger.Info().Str("auction_id", current.ID.String()).Str("final_price", current.CurrentPrice.String())
	if winnerID != nil {
		event = event.Str("winner_id", winnerID.String())
	}
	event.Msg("Auction closed")

	return result, nil
}

// DeleteAuction removes an auction; only its creator may do so
func (service *AuctionService) DeleteAuction(ctx context.Context, auctionID, requesterID uuid.UUID) error {
	current, err := service.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return err
	}

	if current.CreatorID != requesterID {
		service.logger.Warn().
			Str("auction_id", auctionID.String()).
			Str("requester_id", requesterID.String()).
			Msg("Delete refused, requester is not the creator")
		return shared.ErrNotCreator
	}

	if err := service.locks.Acquire(ctx, auctionID); err != nil {
		return err
	}
	defer service.locks.Release(auctionID)

	if err := service.auctionRepo.Delete(ctx, auctionID); err != nil {
		return err
	}

	service.logger.Info().Str("auction_id", auctionID.String()).Msg("Auction deleted")
	return nil
}
