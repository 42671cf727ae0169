package integrationtests

import (
	"bytes"
	"encoding/json"
	bidding "live-auction/internal/biddingService"
	"live-auction/internal/broadcast"
	"live-auction/internal/lifecycle"
	model "live-auction/internal/models"
	"live-auction/internal/repository"
	"live-auction/internal/server"
	"live-auction/services/realtime"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// testEnv is the full engine wired the way main wires it, minus the Redis mirror
type testEnv struct {
	router    *gin.Engine
	repo      *repository.MemoryRepo
	hub       *broadcast.Hub
	scheduler *lifecycle.Scheduler
}

func allowAll(string) bool { return true }

// SetupTestEnv initializes the router over an in-memory repository seeded with auctions.
func SetupTestEnv(t *testing.T, auctions ...model.Auction) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := broadcast.NewHub()
	repo := repository.NewMemoryRepo(broadcast.Fanout{hub})
	for _, a := range auctions {
		require.NoError(t, repo.AddAuction(a))
	}

	service := bidding.NewBiddingService(repo)
	gateway := realtime.NewGateway(hub, repo, allowAll)

	return &testEnv{
		router:    server.SetupRouter(service, gateway, allowAll),
		repo:      repo,
		hub:       hub,
		scheduler: lifecycle.NewScheduler(repo, time.Second),
	}
}

// activeAuction builds a running auction ending in d
func activeAuction(id string, price int64, d time.Duration) model.Auction {
	now := time.Now().UTC()
	return model.Auction{
		AuctionID:            id,
		Title:                id + " title",
		Description:          id + " description",
		Status:               model.StatusActive,
		StartTime:            now.Add(-time.Minute),
		EndTime:              now.Add(d),
		StartingPrice:        decimal.NewFromInt(price),
		TimeExtensionMinutes: 1,
	}
}

func withBuyout(a model.Auction, price int64) model.Auction {
	a.BuyoutPrice = decimal.NewNullDecimal(decimal.NewFromInt(price))
	return a
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response")
	}
	return resp, w
}
