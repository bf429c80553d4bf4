package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bidhaus-auction-service/internal/adapters/db"
	"bidhaus-auction-service/internal/adapters/httpapi"
	"bidhaus-auction-service/internal/adapters/redis"
	"bidhaus-auction-service/internal/adapters/scheduler"
	"bidhaus-auction-service/internal/app"
	"bidhaus-auction-service/internal/config"
	"bidhaus-auction-service/internal/ports/outbound"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	initLogging(cfg)

	log.Info().Msg("Starting Bidhaus Auction Service...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	log.Info().Msg("Database connection established")

	// Create repositories
	repoFactory := db.NewRepositoryFactory(dbConn)
	auctionRepo := repoFactory.GetAuctionRepository()
	bidRepo := repoFactory.GetBidRepository()

	// Create Redis client for the deadline index
	redisClient := redis.NewClient(cfg)
	if err := redis.PingRedis(redisClient); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	log.Info().Msg("Redis connection established")

	// Create the ledger services around one shared per-auction lock table
	locks := app.NewLockTable()
	clock := outbound.SystemClock{}

	auctionService := app.NewAuctionService(app.AuctionServiceParams{
		AuctionRepo: auctionRepo,
		BidRepo:     bidRepo,
		Locks:       locks,
		Clock:       clock,
		Logger:      log.Logger,
	})
	bidService := app.NewBidService(app.BidServiceParams{
		BidRepo:     bidRepo,
		AuctionRepo: auctionRepo,
		Auctions:    auctionService,
		Locks:       locks,
		Clock:       clock,
		Logger:      log.Logger,
	})
	sweeper := app.NewSweeper(app.SweeperParams{
		Closer:      auctionService,
		AuctionRepo: auctionRepo,
		Clock:       clock,
		MaxWorkers:  cfg.Sweep.MaxWorkers,
		Logger:      log.Logger,
	})

	log.Info().Msg("Ledger services initialized")

	// Create and start the deadline scheduler
	deadlineScheduler := scheduler.NewDeadlineScheduler(scheduler.DeadlineSchedulerParams{
		RedisClient:   redisClient,
		Closer:        auctionService,
		Sweeper:       sweeper,
		CheckInterval: cfg.Sweep.CheckInterval,
		SweepInterval: cfg.Sweep.SweepInterval,
		MaxWorkers:    cfg.Sweep.MaxWorkers,
		Logger:        log.Logger,
	})
	deadlineScheduler.Start()
	auctionService.SetDeadlineIndex(deadlineScheduler)
	log.Info().Msg("Deadline scheduler started")

	// HTTP API
	router := httpapi.SetupRouter(auctionService, bidService, sweeper, log.Logger)
	server := httpapi.NewServer(net.JoinHostPort(cfg.Server.Host, cfg.Server.Port), router, log.Logger)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
			cancel()
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	deadlineScheduler.Stop()
	log.Info().Msg("Deadline scheduler stopped")

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	}

	log.Info().Msg("Graceful shutdown completed")
}

func initLogging(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set log format
	if cfg.Logging.Format == "json" {
		// JSON format (default)
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Console format for development
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &log.Logger
}
