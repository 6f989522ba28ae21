package service

import (
	"context"
	"testing"
	"time"

	"github.com/bidhouse/bidhouse/internal/auction"
	"github.com/bidhouse/bidhouse/internal/events"
	"github.com/bidhouse/bidhouse/internal/repository"
	"github.com/bidhouse/bidhouse/pkg/clock"
	"github.com/bidhouse/bidhouse/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	repo *repository.MemoryRepo
	clk  *clock.Fake
	svcs *Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := repository.NewMemoryRepo()
	clk := clock.NewFake(testStart)
	svcs, err := NewServices(repo, repo, clk, events.NopPublisher{}, logger.NewLogger())
	require.NoError(t, err)

	return &testEnv{repo: repo, clk: clk, svcs: svcs}
}

// createListing submits a pending listing starting now and ending in an hour.
func (env *testEnv) createListing(t *testing.T, sellerID uuid.UUID, startingPrice int64) auction.Listing {
	t.Helper()

	now := env.clk.Now()
	listing, err := env.svcs.ListingService.Create(context.Background(), CreateListingInput{
		SellerID:      sellerID,
		Title:         "Vintage Camera",
		Description:   "A beautiful vintage camera in excellent condition",
		Category:      auction.CategoryElectronics,
		StartingPrice: decimal.NewFromInt(startingPrice),
		StartTime:     now,
		EndTime:       now.Add(time.Hour),
	})
	require.NoError(t, err)
	return listing
}

// activeListing creates and approves a listing; approval lands on active
// because the start time has already arrived.
func (env *testEnv) activeListing(t *testing.T, sellerID uuid.UUID, startingPrice int64) auction.Listing {
	t.Helper()

	listing := env.createListing(t, sellerID, startingPrice)
	approved, err := env.svcs.LifecycleService.Approve(context.Background(), listing.ID)
	require.NoError(t, err)
	require.Equal(t, auction.StatusActive, approved.Status)
	return approved
}

func (env *testEnv) placeBid(t *testing.T, listingID, bidderID uuid.UUID, amount int64) auction.Bid {
	t.Helper()

	bid, err := env.svcs.BidService.PlaceBid(context.Background(), listingID, bidderID, decimal.NewFromInt(amount))
	require.NoError(t, err)
	return bid
}
