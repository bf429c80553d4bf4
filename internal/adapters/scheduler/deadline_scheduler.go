package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"bidhaus-auction-service/internal/domain/shared"

	"github.com/alitto/pond"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const deadlineKey = "auction:deadlines"

// AuctionCloser closes a single auction if it has expired
type AuctionCloser interface {
	CloseIfExpired(ctx context.Context, auctionID uuid.UUID) (*shared.CloseResult, error)
}

// SweepRunner runs the full expiry sweep over the store
type SweepRunner interface {
	RunExpirySweep(ctx context.Context) (*shared.SweepReport, error)
}

// DeadlineScheduler drives auction closing on two cadences. A fast tick
// pops due auctions from a Redis sorted set of end times and closes them
// promptly; a slow tick runs the full store sweep, which remains the
// authority on expiry. Losing a sorted-set entry therefore only delays a
// close until the next sweep, it never loses it.
type DeadlineScheduler struct {
	redis         *redis.Client
	closer        AuctionCloser
	sweeper       SweepRunner
	checkInterval time.Duration
	sweepInterval time.Duration
	maxWorkers    int
	logger        zerolog.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

type DeadlineSchedulerParams struct {
	RedisClient   *redis.Client
	Closer        AuctionCloser
	Sweeper       SweepRunner
	CheckInterval time.Duration
	SweepInterval time.Duration
	MaxWorkers    int
	Logger        zerolog.Logger
}

func NewDeadlineScheduler(params DeadlineSchedulerParams) *DeadlineScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	checkInterval := params.CheckInterval
	if checkInterval <= 0 {
		checkInterval = time.Second
	}
	sweepInterval := params.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	maxWorkers := params.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	return &DeadlineScheduler{
		redis:         params.RedisClient,
		closer:        params.Closer,
		sweeper:       params.Sweeper,
		checkInterval: checkInterval,
		sweepInterval: sweepInterval,
		maxWorkers:    maxWorkers,
		logger:        params.Logger.With().Str("component", "deadline_scheduler").Logger(),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Schedule indexes an auction's end time for prompt closing
func (s *DeadlineScheduler) Schedule(auctionID uuid.UUID, endTime time.Time) error {
	err := s.redis.ZAdd(s.ctx, deadlineKey, redis.Z{
		Score:  float64(endTime.Unix()),
		Member: auctionID.String(),
	}).Err()

	if err != nil {
		s.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to index auction deadline")
		return fmt.Errorf("failed to index auction deadline: %w", err)
	}

	s.logger.Debug().
		Str("auction_id", auctionID.String()).
		Time("end_time", endTime).
		Msg("Auction deadline indexed")

	return nil
}

// Start begins the scheduler loop
func (s *DeadlineScheduler) Start() {
	s.logger.Info().
		Dur("check_interval", s.checkInterval).
		Dur("sweep_interval", s.sweepInterval).
		Msg("Starting deadline scheduler")

	s.wg.Add(1)
	go s.loop()
}

// Stop gracefully stops the scheduler
func (s *DeadlineScheduler) Stop() {
	s.logger.Info().Msg("Stopping deadline scheduler")
	s.cancel()
	s.wg.Wait()
}

func (s *DeadlineScheduler) loop() {
	defer s.wg.Done()

	checkTicker := time.NewTicker(s.checkInterval)
	defer checkTicker.Stop()
	sweepTicker := time.NewTicker(s.sweepInterval)
	defer sweepTicker.Stop()

	for {
		select {
		case <-checkTicker.C:
			s.closeDueAuctions()
		case <-sweepTicker.C:
			s.runSweep()
		case <-s.ctx.Done():
			s.logger.Info().Msg("Scheduler loop stopped")
			return
		}
	}
}

// closeDueAuctions pops auctions whose indexed deadline has passed and
// closes each one.
func (s *DeadlineScheduler) closeDueAuctions() {
	now := time.Now().Unix()

	due, err := s.redis.ZRangeByScore(s.ctx, deadlineKey, &redis.ZRangeBy{
		Min:   "0",
		Max:   strconv.FormatInt(now, 10),
		Count: 100,
	}).Result()

	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read due auction deadlines")
		return
	}

	if len(due) == 0 {
		return
	}

	s.logger.Debug().Int("count", len(due)).Msg("Found due auctions")

	// Bounded pool: a burst of due auctions must not fan out into an
	// unbounded number of goroutines hitting the store at once.
	pool := pond.New(s.maxWorkers, len(due), pond.Context(s.ctx))
	for _, member := range due {
		auctionID, err := uuid.Parse(member)
		if err != nil {
			s.logger.Error().Err(err).Str("member", member).Msg("Invalid auction ID in deadline index, dropping")
			s.redis.ZRem(s.ctx, deadlineKey, member)
			continue
		}

		pool.Submit(func() {
			s.closeAuction(auctionID)
		})
	}
	pool.StopAndWait()
}

func (s *DeadlineScheduler) closeAuction(auctionID uuid.UUID) {
	result, err := s.closer.CloseIfExpired(s.ctx, auctionID)
	defer s.redis.ZRem(s.ctx, deadlineKey, auctionID.String())

	if err != nil {
		// the index entry is removed anyway; the periodic sweep retries the close
		s.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to close due auction")
		return
	}

	if !result.Closed {
		return
	}

	event := s.logger.Info().
		Str("auction_id", auctionID.String()).
		Str("final_price", result.FinalPrice.String())
	if result.WinnerID != nil {
		event = event.Str("winner_id", result.WinnerID.String())
	}
	event.Msg("Due auction closed")
}

func (s *DeadlineScheduler) runSweep() {
	report, err := s.sweeper.RunExpirySweep(s.ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Expiry sweep failed")
		return
	}

	if report.ClosedCount > 0 || len(report.Failures) > 0 {
		s.logger.Info().
			Int("closed", report.ClosedCount).
			Int("failed", len(report.Failures)).
			Msg("Scheduled sweep finished")
	}
}
