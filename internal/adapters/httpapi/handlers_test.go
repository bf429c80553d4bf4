package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bidhaus-auction-service/internal/adapters/memory"
	"bidhaus-auction-service/internal/app"
	"bidhaus-auction-service/internal/ports/outbound"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter() *gin.Engine {
	store := memory.NewStore()
	locks := app.NewLockTable()
	clock := outbound.SystemClock{}
	logger := zerolog.Nop()

	auctions := app.NewAuctionService(app.AuctionServiceParams{
		AuctionRepo: store.Auctions(),
		BidRepo:     store.Bids(),
		Locks:       locks,
		Clock:       clock,
		Logger:      logger,
	})
	bids := app.NewBidService(app.BidServiceParams{
		BidRepo:     store.Bids(),
		AuctionRepo: store.Auctions(),
		Auctions:    auctions,
		Locks:       locks,
		Clock:       clock,
		Logger:      logger,
	})
	sweeper := app.NewSweeper(app.SweeperParams{
		Closer:      auctions,
		AuctionRepo: store.Auctions(),
		Clock:       clock,
		MaxWorkers:  2,
		Logger:      logger,
	})

	return SetupRouter(auctions, bids, sweeper, logger)
}

func doJSON(router *gin.Engine, method, path, userID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(userIDHeader, userID)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func createAuctionBody(endsIn time.Duration) string {
	now := time.Now().UTC()
	return fmt.Sprintf(
		`{"title":"Vintage camera","description":"Working","starting_price":"10.00","start_time":%q,"end_time":%q}`,
		now.Add(-time.Hour).Format(time.RFC3339),
		now.Add(endsIn).Format(time.RFC3339),
	)
}

func createAuction(t *testing.T, router *gin.Engine, creatorID string, endsIn time.Duration) string {
	t.Helper()
	recorder := doJSON(router, http.MethodPost, "/api/auctions", creatorID, createAuctionBody(endsIn))
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	return created.ID
}

func TestCreateAuctionEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		router := newTestRouter()
		recorder := doJSON(router, http.MethodPost, "/api/auctions", uuid.NewString(), createAuctionBody(time.Hour))
		require.Equal(t, http.StatusCreated, recorder.Code)

		var created struct {
			CurrentPrice string `json:"current_price"`
			IsActive     bool   `json:"is_active"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
		require.True(t, created.IsActive)
		require.Equal(t, "10", created.CurrentPrice)
	})

	t.Run("missing user header", func(t *testing.T) {
		router := newTestRouter()
		recorder := doJSON(router, http.MethodPost, "/api/auctions", "", createAuctionBody(time.Hour))
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("malformed user header", func(t *testing.T) {
		router := newTestRouter()
		recorder := doJSON(router, http.MethodPost, "/api/auctions", "not-a-uuid", createAuctionBody(time.Hour))
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("missing required fields", func(t *testing.T) {
		router := newTestRouter()
		recorder := doJSON(router, http.MethodPost, "/api/auctions", uuid.NewString(), `{"description":"no title"}`)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("end before start", func(t *testing.T) {
		router := newTestRouter()
		recorder := doJSON(router, http.MethodPost, "/api/auctions", uuid.NewString(), createAuctionBody(-2*time.Hour))
		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestPlaceBidEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		router := newTestRouter()
		auctionID := createAuction(t, router, uuid.NewString(), time.Hour)

		recorder := doJSON(router, http.MethodPost, "/api/auctions/"+auctionID+"/bids", uuid.NewString(), `{"amount":"15.00"}`)
		require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

		var placed struct {
			Amount   string `json:"amount"`
			BidderID string `json:"bidder_id"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &placed))
		require.Equal(t, "15", placed.Amount)
	})

	t.Run("too low", func(t *testing.T) {
		router := newTestRouter()
		auctionID := createAuction(t, router, uuid.NewString(), time.Hour)

		recorder := doJSON(router, http.MethodPost, "/api/auctions/"+auctionID+"/bids", uuid.NewString(), `{"amount":"10.00"}`)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		require.Contains(t, recorder.Body.String(), "higher than current price")
	})

	t.Run("self-bid", func(t *testing.T) {
		router := newTestRouter()
		creatorID := uuid.NewString()
		auctionID := createAuction(t, router, creatorID, time.Hour)

		recorder := doJSON(router, http.MethodPost, "/api/auctions/"+auctionID+"/bids", creatorID, `{"amount":"15.00"}`)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		require.Contains(t, recorder.Body.String(), "your own auction")
	})

	t.Run("expired auction", func(t *testing.T) {
		router := newTestRouter()
		auctionID := createAuction(t, router, uuid.NewString(), -time.Minute)

		recorder := doJSON(router, http.MethodPost, "/api/auctions/"+auctionID+"/bids", uuid.NewString(), `{"amount":"15.00"}`)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		require.Contains(t, recorder.Body.String(), "closed")
	})

	t.Run("unknown auction", func(t *testing.T) {
		router := newTestRouter()

		recorder := doJSON(router, http.MethodPost, "/api/auctions/"+uuid.NewString()+"/bids", uuid.NewString(), `{"amount":"15.00"}`)
		require.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("malformed auction id", func(t *testing.T) {
		router := newTestRouter()

		recorder := doJSON(router, http.MethodPost, "/api/auctions/not-an-id/bids", uuid.NewString(), `{"amount":"15.00"}`)
		require.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestGetAndListEndpoints(t *testing.T) {
	router := newTestRouter()
	creatorID := uuid.NewString()
	auctionID := createAuction(t, router, creatorID, time.Hour)
	bidderID := uuid.NewString()
	doJSON(router, http.MethodPost, "/api/auctions/"+auctionID+"/bids", bidderID, `{"amount":"12.00"}`)

	t.Run("get auction", func(t *testing.T) {
		recorder := doJSON(router, http.MethodGet, "/api/auctions/"+auctionID, "", "")
		require.Equal(t, http.StatusOK, recorder.Code)
		require.Contains(t, recorder.Body.String(), auctionID)
	})

	t.Run("list auctions", func(t *testing.T) {
		recorder := doJSON(router, http.MethodGet, "/api/auctions", "", "")
		require.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("list bids", func(t *testing.T) {
		recorder := doJSON(router, http.MethodGet, "/api/auctions/"+auctionID+"/bids", "", "")
		require.Equal(t, http.StatusOK, recorder.Code)
		require.Contains(t, recorder.Body.String(), bidderID)
	})

	t.Run("my bids", func(t *testing.T) {
		recorder := doJSON(router, http.MethodGet, "/api/my-bids", bidderID, "")
		require.Equal(t, http.StatusOK, recorder.Code)
		require.Contains(t, recorder.Body.String(), auctionID)
	})

	t.Run("my auctions", func(t *testing.T) {
		recorder := doJSON(router, http.MethodGet, "/api/my-auctions", creatorID, "")
		require.Equal(t, http.StatusOK, recorder.Code)
		require.Contains(t, recorder.Body.String(), auctionID)
	})
}

func TestUpdateAuctionEndpoint(t *testing.T) {
	t.Run("creator updates the listing", func(t *testing.T) {
		router := newTestRouter()
		creatorID := uuid.NewString()
		auctionID := createAuction(t, router, creatorID, time.Hour)

		recorder := doJSON(router, http.MethodPatch, "/api/auctions/"+auctionID, creatorID, `{"title":"Better title"}`)
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

		var updated struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &updated))
		require.Equal(t, "Better title", updated.Title)
		require.Equal(t, "Working", updated.Description)
	})

	t.Run("non-creator is forbidden", func(t *testing.T) {
		router := newTestRouter()
		auctionID := createAuction(t, router, uuid.NewString(), time.Hour)

		recorder := doJSON(router, http.MethodPut, "/api/auctions/"+auctionID, uuid.NewString(), `{"title":"Hijacked"}`)
		require.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("missing user header", func(t *testing.T) {
		router := newTestRouter()
		auctionID := createAuction(t, router, uuid.NewString(), time.Hour)

		recorder := doJSON(router, http.MethodPatch, "/api/auctions/"+auctionID, "", `{"title":"x"}`)
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestDeleteAuctionEndpoint(t *testing.T) {
	router := newTestRouter()
	creatorID := uuid.NewString()
	auctionID := createAuction(t, router, creatorID, time.Hour)

	recorder := doJSON(router, http.MethodDelete, "/api/auctions/"+auctionID, uuid.NewString(), "")
	require.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = doJSON(router, http.MethodDelete, "/api/auctions/"+auctionID, creatorID, "")
	require.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = doJSON(router, http.MethodGet, "/api/auctions/"+auctionID, "", "")
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestRunSweepEndpoint(t *testing.T) {
	router := newTestRouter()
	createAuction(t, router, uuid.NewString(), -time.Minute)
	createAuction(t, router, uuid.NewString(), -time.Minute)
	createAuction(t, router, uuid.NewString(), time.Hour)

	recorder := doJSON(router, http.MethodPost, "/internal/sweep", "", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var report struct {
		ClosedCount int `json:"closed_count"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &report))
	require.Equal(t, 2, report.ClosedCount)
}
