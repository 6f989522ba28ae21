package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveListingsHandler(t *testing.T) {
	t.Run("lists active listings with current prices", func(t *testing.T) {
		env := newHandlerEnv(t)
		listing := env.activeListing(t, uuid.New(), 100)
		_, err := env.svcs.BidService.PlaceBid(context.Background(), listing.ID, uuid.New(), decimal.NewFromInt(175))
		require.NoError(t, err)
		env.pendingListing(t, uuid.New(), 50) // not yet reviewed, stays hidden

		r := httptest.NewRequest(http.MethodGet, "/api/v1/listings/active", nil)
		rec := httptest.NewRecorder()

		env.market.ActiveListings(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		listings, ok := dataField(t, body, "listings").([]any)
		require.True(t, ok)
		require.Len(t, listings, 1)

		entry := listings[0].(map[string]any)
		assert.Equal(t, "175", entry["current_price"])
		assert.EqualValues(t, 1, entry["bid_count"])
	})

	t.Run("default view is cached after first hit", func(t *testing.T) {
		env := newHandlerEnv(t)
		env.activeListing(t, uuid.New(), 100)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/listings/active", nil)
		rec := httptest.NewRecorder()
		env.market.ActiveListings(rec, r)
		require.Equal(t, http.StatusOK, rec.Code)

		_, found, err := env.cache.Get(context.Background(), activeListingsBaseKey)
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("filtered views bypass the cache", func(t *testing.T) {
		env := newHandlerEnv(t)
		env.activeListing(t, uuid.New(), 100)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/listings/active?category=books", nil)
		rec := httptest.NewRecorder()
		env.market.ActiveListings(rec, r)
		require.Equal(t, http.StatusOK, rec.Code)

		_, found, err := env.cache.Get(context.Background(), activeListingsBaseKey)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("unknown category is rejected", func(t *testing.T) {
		env := newHandlerEnv(t)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/listings/active?category=antiques", nil)
		rec := httptest.NewRecorder()

		env.market.ActiveListings(rec, r)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("expired listings fall out of the view", func(t *testing.T) {
		env := newHandlerEnv(t)
		env.activeListing(t, uuid.New(), 100)
		env.clk.Advance(2 * time.Hour)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/listings/active", nil)
		rec := httptest.NewRecorder()

		env.market.ActiveListings(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		listings, ok := dataField(t, body, "listings").([]any)
		require.True(t, ok)
		assert.Empty(t, listings)
	})
}

func TestSoldListingsHandler(t *testing.T) {
	t.Run("reports winner and final price", func(t *testing.T) {
		env := newHandlerEnv(t)
		listing := env.activeListing(t, uuid.New(), 100)
		winner := uuid.New()
		_, err := env.svcs.BidService.PlaceBid(context.Background(), listing.ID, winner, decimal.NewFromInt(160))
		require.NoError(t, err)
		env.clk.Advance(2 * time.Hour)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/listings/sold", nil)
		rec := httptest.NewRecorder()

		env.market.SoldListings(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		listings, ok := dataField(t, body, "listings").([]any)
		require.True(t, ok)
		require.Len(t, listings, 1)

		entry := listings[0].(map[string]any)
		assert.Equal(t, winner.String(), entry["winner_id"])
		assert.Equal(t, "160", entry["final_price"])
	})

	t.Run("empty result is an empty array", func(t *testing.T) {
		env := newHandlerEnv(t)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/listings/sold", nil)
		rec := httptest.NewRecorder()

		env.market.SoldListings(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		listings, ok := dataField(t, body, "listings").([]any)
		require.True(t, ok)
		assert.Empty(t, listings)
	})
}
