package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bidhouse/bidhouse/internal/auction"
	"github.com/bidhouse/bidhouse/internal/cache"
	"github.com/bidhouse/bidhouse/internal/events"
	"github.com/bidhouse/bidhouse/internal/repository"
	"github.com/bidhouse/bidhouse/internal/service"
	"github.com/bidhouse/bidhouse/pkg/clock"
	"github.com/bidhouse/bidhouse/pkg/config"
	"github.com/bidhouse/bidhouse/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type handlerEnv struct {
	repo  *repository.MemoryRepo
	clk   *clock.Fake
	cache *cache.MemoryCache
	svcs  *service.Services

	listings *ListingHandler
	bids     *BidHandler
	market   *MarketHandler
	admin    *AdminHandler
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	repo := repository.NewMemoryRepo()
	clk := clock.NewFake(testStart)
	memCache := cache.NewMemoryCache()

	svcs, err := service.NewServices(repo, repo, clk, events.NopPublisher{}, logger.NewLogger())
	require.NoError(t, err)

	listings, err := NewListingHandler(svcs.ListingService, svcs.BidService, svcs.LifecycleService, clk)
	require.NoError(t, err)
	bids, err := NewBidHandler(svcs.BidService, svcs.QueryService, memCache)
	require.NoError(t, err)
	market, err := NewMarketHandler(svcs.QueryService, memCache)
	require.NoError(t, err)
	admin, err := NewAdminHandler(svcs.LifecycleService, svcs.QueryService, memCache)
	require.NoError(t, err)

	return &handlerEnv{
		repo:     repo,
		clk:      clk,
		cache:    memCache,
		svcs:     svcs,
		listings: listings,
		bids:     bids,
		market:   market,
		admin:    admin,
	}
}

// pendingListing seeds a listing straight through the service layer.
func (env *handlerEnv) pendingListing(t *testing.T, sellerID uuid.UUID, startingPrice int64) auction.Listing {
	t.Helper()

	now := env.clk.Now()
	listing, err := env.svcs.ListingService.Create(context.Background(), service.CreateListingInput{
		SellerID:      sellerID,
		Title:         "Signed First Edition",
		Description:   "A signed first edition in good condition",
		Category:      auction.CategoryBooks,
		StartingPrice: decimal.NewFromInt(startingPrice),
		StartTime:     now,
		EndTime:       now.Add(time.Hour),
	})
	require.NoError(t, err)
	return listing
}

func (env *handlerEnv) activeListing(t *testing.T, sellerID uuid.UUID, startingPrice int64) auction.Listing {
	t.Helper()

	listing := env.pendingListing(t, sellerID, startingPrice)
	approved, err := env.svcs.LifecycleService.Approve(context.Background(), listing.ID)
	require.NoError(t, err)
	require.Equal(t, auction.StatusActive, approved.Status)
	return approved
}

// addAuthContext injects claims the way the auth middleware would.
func addAuthContext(req *http.Request, userID uuid.UUID, role string) *http.Request {
	claims := &config.UserClaims{UserID: userID, Role: role}
	return req.WithContext(context.WithValue(req.Context(), config.UserClaimKey, claims))
}

// addListingParam injects the chi URL param the router would resolve.
func addListingParam(req *http.Request, id uuid.UUID) *http.Request {
	return addRawListingParam(req, id.String())
}

func addRawListingParam(req *http.Request, raw string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(listingParamKey, raw)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()

	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "response has no error object")
	code, _ := errObj["code"].(string)
	return code
}

func dataField(t *testing.T, body map[string]any, key string) any {
	t.Helper()

	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data object")
	return data[key]
}

func jsonBody(t *testing.T, payload any) io.Reader {
	t.Helper()

	encoded, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewReader(encoded)
}
