package app

import (
	"context"
	"testing"
	"time"

	"bidhaus-auction-service/internal/domain/shared"
	"bidhaus-auction-service/internal/ports/inbound"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCreateAuction(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture()
		creatorID := uuid.New()

		created, err := f.auctions.CreateAuction(context.Background(), inbound.CreateAuctionRequest{
			CreatorID:     creatorID,
			Title:         "Vintage camera",
			Description:   "Working condition",
			StartingPrice: decimal.RequireFromString("25.00"),
			StartTime:     f.clock.Now().Format(time.RFC3339),
			EndTime:       f.clock.Now().Add(24 * time.Hour).Format(time.RFC3339),
		})
		require.NoError(t, err)
		require.Equal(t, creatorID, created.CreatorID)
		require.True(t, created.IsActive)
		require.True(t, created.CurrentPrice.Equal(created.StartingPrice))

		stored, err := f.auctions.GetAuction(context.Background(), created.ID)
		require.NoError(t, err)
		require.Equal(t, created.ID, stored.ID)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture()
		validStart := f.clock.Now().Format(time.RFC3339)
		validEnd := f.clock.Now().Add(time.Hour).Format(time.RFC3339)

		tests := []struct {
			name    string
			mutate  func(*inbound.CreateAuctionRequest)
			wantErr error
		}{
			{
				name:    "malformed start time",
				mutate:  func(req *inbound.CreateAuctionRequest) { req.StartTime = "June 1st 2025" },
				wantErr: shared.ErrInvalidTimeFormat,
			},
			{
				name:    "malformed end time",
				mutate:  func(req *inbound.CreateAuctionRequest) { req.EndTime = "not-a-time" },
				wantErr: shared.ErrInvalidTimeFormat,
			},
			{
				name: "end before start",
				mutate: func(req *inbound.CreateAuctionRequest) {
					req.EndTime = validStart
					req.StartTime = validEnd
				},
				wantErr: shared.ErrInvalidEndTime,
			},
			{
				name:    "end equal to start",
				mutate:  func(req *inbound.CreateAuctionRequest) { req.EndTime = req.StartTime },
				wantErr: shared.ErrInvalidEndTime,
			},
			{
				name:    "negative starting price",
				mutate:  func(req *inbound.CreateAuctionRequest) { req.StartingPrice = decimal.RequireFromString("-1") },
				wantErr: shared.ErrInvalidStartingPrice,
			},
		}

		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				req := inbound.CreateAuctionRequest{
					CreatorID:     uuid.New(),
					Title:         "Test",
					StartingPrice: decimal.RequireFromString("10"),
					StartTime:     validStart,
					EndTime:       validEnd,
				}
				test.mutate(&req)

				_, err := f.auctions.CreateAuction(context.Background(), req)
				require.ErrorIs(t, err, test.wantErr)
			})
		}
	})
}

func TestCloseIfExpired(t *testing.T) {
	t.Run("not expired is a no-op", func(t *testing.T) {
		f := newFixture()
		created := f.openAuction(uuid.New(), "10.00")

		result, err := f.auctions.CloseIfExpired(context.Background(), created.ID)
		require.NoError(t, err)
		require.False(t, result.Closed)

		stored, err := f.auctions.GetAuction(context.Background(), created.ID)
		require.NoError(t, err)
		require.True(t, stored.IsActive)
	})

	t.Run("closes with no winner when there are no bids", func(t *testing.T) {
		f := newFixture()
		created := f.openAuction(uuid.New(), "10.00")

		f.clock.Advance(2 * time.Hour)

		result, err := f.auctions.CloseIfExpired(context.Background(), created.ID)
		require.NoError(t, err)
		require.True(t, result.Closed)
		require.Nil(t, result.WinnerID)
		require.True(t, result.FinalPrice.Equal(decimal.RequireFromString("10.00")))
		require.NotNil(t, result.ClosedAt)

		stored, err := f.auctions.GetAuction(context.Background(), created.ID)
		require.NoError(t, err)
		require.False(t, stored.IsActive)
		require.Nil(t, stored.WinnerID)
	})

	t.Run("winner is the highest bidder", func(t *testing.T) {
		f := newFixture()
		created := f.openAuction(uuid.New(), "10.00")
		lowBidder := uuid.New()
		highBidder := uuid.New()

		require.NoError(t, f.placeBid(created.ID, lowBidder, "12.00"))
		require.NoError(t, f.placeBid(created.ID, highBidder, "20.00"))

		f.clock.Advance(2 * time.Hour)

		result, err := f.auctions.CloseIfExpired(context.Background(), created.ID)
		require.NoError(t, err)
		require.True(t, result.Closed)
		require.NotNil(t, result.WinnerID)
		require.Equal(t, highBidder, *result.WinnerID)
		require.True(t, result.FinalPrice.Equal(decimal.RequireFromString("20.00")))
	})

	t.Run("second close is a no-op and keeps the winner", func(t *testing.T) {
		f := newFixture()
		created := f.openAuction(uuid.New(), "10.00")
		bidder := uuid.New()
		require.NoError(t, f.placeBid(created.ID, bidder, "15.00"))

		f.clock.Advance(2 * time.Hour)

		first, err := f.auctions.CloseIfExpired(context.Background(), created.ID)
		require.NoError(t, err)
		require.True(t, first.Closed)

		second, err := f.auctions.CloseIfExpired(context.Background(), created.ID)
		require.NoError(t, err)
		require.False(t, second.Closed)

		stored, err := f.auctions.GetAuction(context.Background(), created.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.WinnerID)
		require.Equal(t, bidder, *stored.WinnerID)
	})

	t.Run("unknown auction", func(t *testing.T) {
		f := newFixture()

		_, err := f.auctions.CloseIfExpired(context.Background(), uuid.New())
		require.ErrorIs(t, err, shared.ErrAuctionNotFound)
	})
}

func TestUpdateAuction(t *testing.T) {
	t.Run("creator updates the listing details", func(t *testing.T) {
		f := newFixture()
		creatorID := uuid.New()
		created := f.openAuction(creatorID, "10.00")
		require.NoError(t, f.placeBid(created.ID, uuid.New(), "15.00"))

		title := "Better title"
		updated, err := f.auctions.UpdateAuction(context.Background(), inbound.UpdateAuctionRequest{
			AuctionID:   created.ID,
			RequesterID: creatorID,
			Title:       &title,
		})
		require.NoError(t, err)
		require.Equal(t, "Better title", updated.Title)
		require.Equal(t, created.Description, updated.Description)

		// price and open state survive the metadata write
		stored, err := f.auctions.GetAuction(context.Background(), created.ID)
		require.NoError(t, err)
		require.Equal(t, "Better title", stored.Title)
		require.True(t, stored.CurrentPrice.Equal(decimal.RequireFromString("15.00")))
		require.True(t, stored.IsActive)
	})

	t.Run("non-creator is refused", func(t *testing.T) {
		f := newFixture()
		created := f.openAuction(uuid.New(), "10.00")

		title := "Hijacked"
		_, err := f.auctions.UpdateAuction(context.Background(), inbound.UpdateAuctionRequest{
			AuctionID:   created.ID,
			RequesterID: uuid.New(),
			Title:       &title,
		})
		require.ErrorIs(t, err, shared.ErrNotCreator)

		stored, getErr := f.auctions.GetAuction(context.Background(), created.ID)
		require.NoError(t, getErr)
		require.Equal(t, created.Title, stored.Title)
	})

	t.Run("unknown auction", func(t *testing.T) {
		f := newFixture()

		_, err := f.auctions.UpdateAuction(context.Background(), inbound.UpdateAuctionRequest{
			AuctionID:   uuid.New(),
			RequesterID: uuid.New(),
		})
		require.ErrorIs(t, err, shared.ErrAuctionNotFound)
	})
}

func TestDeleteAuction(t *testing.T) {
	f := newFixture()
	creatorID := uuid.New()
	created := f.openAuction(creatorID, "10.00")

	err := f.auctions.DeleteAuction(context.Background(), created.ID, uuid.New())
	require.ErrorIs(t, err, shared.ErrNotCreator)

	err = f.auctions.DeleteAuction(context.Background(), created.ID, creatorID)
	require.NoError(t, err)

	_, err = f.auctions.GetAuction(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrAuctionNotFound)
}

func TestListUserAuctions(t *testing.T) {
	f := newFixture()
	creatorID := uuid.New()
	f.openAuction(creatorID, "10.00")
	f.openAuction(creatorID, "20.00")
	f.openAuction(uuid.New(), "30.00")

	mine, err := f.auctions.ListUserAuctions(context.Background(), creatorID)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	all, err := f.auctions.ListAuctions(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
}
