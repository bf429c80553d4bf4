package app

import (
	"context"
	"fmt"
	"sync"

	"bidhaus-auction-service/internal/domain/shared"
	"bidhaus-auction-service/internal/ports/outbound"

	"github.com/alitto/pond"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuctionCloser is the closing operation the sweep applies to each
// expired auction. Satisfied by AuctionService.
type AuctionCloser interface {
	CloseIfExpired(ctx context.Context, auctionID uuid.UUID) (*shared.CloseResult, error)
}

// Sweeper closes every expired-but-active auction in one batch pass.
// Each close is an independent transaction behind that auction's own
// lock; the sweep never holds a lock across the batch, so a slow sweep
// cannot block bidding on unrelated auctions.
type Sweeper struct {
	closer      AuctionCloser
	auctionRepo outbound.AuctionRepository
	clock       outbound.Clock
	maxWorkers  int
	logger      zerolog.Logger
}

type SweeperParams struct {
	Closer      AuctionCloser
	AuctionRepo outbound.AuctionRepository
	Clock       outbound.Clock
	MaxWorkers  int
	Logger      zerolog.Logger
}

// NewSweeper creates a new expiry sweeper
func NewSweeper(params SweeperParams) *Sweeper {
	workers := params.MaxWorkers
	if workers <= 0 {
		workers = 1
	}
	return &Sweeper{
		closer:      params.Closer,
		auctionRepo: params.AuctionRepo,
		clock:       params.Clock,
		maxWorkers:  workers,
		logger:      params.Logger.With().Str("component", "expiry_sweeper").Logger(),
	}
}

// RunExpirySweep finds every active auction whose end time has passed and
// closes each one. A failed close is recorded and the sweep moves on;
// re-running the sweep is safe because closing is idempotent.
func (sweeper *Sweeper) RunExpirySweep(ctx context.Context) (*shared.SweepReport, error) {
	expired, err := sweeper.auctionRepo.ListExpiredActive(ctx, sweeper.clock.Now())
	if err != nil {
		sweeper.logger.Error().Err(err).Msg("Failed to list expired auctions")
		return nil, fmt.Errorf("list expired auctions: %w", err)
	}

	if len(expired) == 0 {
		return &shared.SweepReport{}, nil
	}

	sweeper.logger.Info().Int("count", len(expired)).Msg("Sweeping expired auctions")

	var (
		mu     sync.Mutex
		report shared.SweepReport
	)

	pool := pond.New(sweeper.maxWorkers, len(expired), pond.Context(ctx))
	for _, candidate := range expired {
		auctionID := candidate.ID
		pool.Submit(func() {
			result, err := sweeper.closer.CloseIfExpired(ctx, auctionID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				sweeper.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to close auction")
				report.Failures = append(report.Failures, shared.SweepFailure{AuctionID: auctionID, Err: err})
			case result.Closed:
				report.ClosedCount++
			}
		})
	}
	pool.StopAndWait()

	sweeper.logger.Info().
		Int("closed", report.ClosedCount).
		Int("failed", len(report.Failures)).
		Msg("Expiry sweep finished")

	return &report, nil
}
