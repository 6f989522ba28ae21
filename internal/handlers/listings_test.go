package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bidhouse/bidhouse/internal/auction"
	"github.com/bidhouse/bidhouse/pkg/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createListingPayload(start time.Time) map[string]any {
	return map[string]any{
		"title":          "Signed First Edition",
		"description":    "A signed first edition in good condition",
		"category":       "books",
		"starting_price": "120",
		"start_time":     start.Format(time.RFC3339),
		"end_time":       start.Add(time.Hour).Format(time.RFC3339),
		"images": []map[string]any{
			{"url": "https://img.test/cover.jpg", "is_primary": true},
		},
	}
}

func TestCreateListingHandler(t *testing.T) {
	t.Run("valid submission is accepted as pending", func(t *testing.T) {
		env := newHandlerEnv(t)
		payload := createListingPayload(env.clk.Now())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", jsonBody(t, payload))
		req = addAuthContext(req, uuid.New(), config.RoleCustomer)
		rec := httptest.NewRecorder()

		env.listings.CreateListing(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "success", body["status"])

		listing, ok := dataField(t, body, "listing").(map[string]any)
		require.True(t, ok)
		assert.Equal(t, string(auction.StatusPending), listing["status"])
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("missing required fields fail validation", func(t *testing.T) {
		env := newHandlerEnv(t)
		payload := createListingPayload(env.clk.Now())
		delete(payload, "title")

		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", jsonBody(t, payload))
		req = addAuthContext(req, uuid.New(), config.RoleCustomer)
		rec := httptest.NewRecorder()

		env.listings.CreateListing(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
	})

	t.Run("domain validation surfaces field detail", func(t *testing.T) {
		env := newHandlerEnv(t)
		payload := createListingPayload(env.clk.Now())
		payload["category"] = "antiques"

		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", jsonBody(t, payload))
		req = addAuthContext(req, uuid.New(), config.RoleCustomer)
		rec := httptest.NewRecorder()

		env.listings.CreateListing(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
	})

	t.Run("malformed json is rejected", func(t *testing.T) {
		env := newHandlerEnv(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader("{not json"))
		req = addAuthContext(req, uuid.New(), config.RoleCustomer)
		rec := httptest.NewRecorder()

		env.listings.CreateListing(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "INVALID_JSON_FORMAT", errorCode(t, body))
	})

	t.Run("missing claims is unauthorized", func(t *testing.T) {
		env := newHandlerEnv(t)
		payload := createListingPayload(env.clk.Now())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", jsonBody(t, payload))
		rec := httptest.NewRecorder()

		env.listings.CreateListing(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "AUTH_FAILED", errorCode(t, body))
	})
}

func TestGetListingHandler(t *testing.T) {
	t.Run("returns listing with bid history and current price", func(t *testing.T) {
		env := newHandlerEnv(t)
		listing := env.activeListing(t, uuid.New(), 100)
		_, err := env.svcs.BidService.PlaceBid(context.Background(), listing.ID, uuid.New(), decimal.NewFromInt(150))
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/listings/"+listing.ID.String(), nil)
		r = addListingParam(r, listing.ID)
		rec := httptest.NewRecorder()

		env.listings.GetListing(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		bids, ok := dataField(t, body, "bids").([]any)
		require.True(t, ok)
		assert.Len(t, bids, 1)
		assert.Equal(t, "150", dataField(t, body, "current_price"))
	})

	t.Run("reports overdue transition on read", func(t *testing.T) {
		env := newHandlerEnv(t)
		listing := env.activeListing(t, uuid.New(), 100)
		env.clk.Advance(2 * time.Hour)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/listings/"+listing.ID.String(), nil)
		r = addListingParam(r, listing.ID)
		rec := httptest.NewRecorder()

		env.listings.GetListing(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		got, ok := dataField(t, body, "listing").(map[string]any)
		require.True(t, ok)
		assert.Equal(t, string(auction.StatusClosedUnsold), got["status"])
	})

	t.Run("unknown listing is 404", func(t *testing.T) {
		env := newHandlerEnv(t)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/listings/"+uuid.NewString(), nil)
		r = addListingParam(r, uuid.New())
		rec := httptest.NewRecorder()

		env.listings.GetListing(rec, r)

		require.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "LISTING_NOT_FOUND", errorCode(t, body))
	})

	t.Run("garbage listing id is 400", func(t *testing.T) {
		env := newHandlerEnv(t)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/listings/not-a-uuid", nil)
		r = addRawListingParam(r, "not-a-uuid")
		rec := httptest.NewRecorder()

		env.listings.GetListing(rec, r)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateListingHandler(t *testing.T) {
	t.Run("owner edits a pending listing", func(t *testing.T) {
		env := newHandlerEnv(t)
		seller := uuid.New()
		listing := env.pendingListing(t, seller, 100)

		r := httptest.NewRequest(http.MethodPatch, "/api/v1/listings/"+listing.ID.String(),
			jsonBody(t, map[string]any{"title": "Signed First Edition, 1922"}))
		r = addAuthContext(r, seller, config.RoleCustomer)
		r = addListingParam(r, listing.ID)
		rec := httptest.NewRecorder()

		env.listings.UpdateListing(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		got, ok := dataField(t, body, "listing").(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Signed First Edition, 1922", got["title"])
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		env := newHandlerEnv(t)
		listing := env.pendingListing(t, uuid.New(), 100)

		r := httptest.NewRequest(http.MethodPatch, "/api/v1/listings/"+listing.ID.String(),
			jsonBody(t, map[string]any{"title": "hijack"}))
		r = addAuthContext(r, uuid.New(), config.RoleCustomer)
		r = addListingParam(r, listing.ID)
		rec := httptest.NewRecorder()

		env.listings.UpdateListing(rec, r)

		require.Equal(t, http.StatusForbidden, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "NOT_LISTING_OWNER", errorCode(t, body))
	})

	t.Run("approved listing is no longer editable", func(t *testing.T) {
		env := newHandlerEnv(t)
		seller := uuid.New()
		listing := env.activeListing(t, seller, 100)

		r := httptest.NewRequest(http.MethodPatch, "/api/v1/listings/"+listing.ID.String(),
			jsonBody(t, map[string]any{"title": "too late"}))
		r = addAuthContext(r, seller, config.RoleCustomer)
		r = addListingParam(r, listing.ID)
		rec := httptest.NewRecorder()

		env.listings.UpdateListing(rec, r)

		require.Equal(t, http.StatusConflict, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "LISTING_NOT_EDITABLE", errorCode(t, body))
	})
}

func TestMyListingsHandler(t *testing.T) {
	env := newHandlerEnv(t)
	seller := uuid.New()
	env.pendingListing(t, seller, 100)
	env.pendingListing(t, seller, 200)
	env.pendingListing(t, uuid.New(), 300)

	t.Run("returns only the seller's listings", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/my/listings?limit=5", nil)
		r = addAuthContext(r, seller, config.RoleCustomer)
		rec := httptest.NewRecorder()

		env.listings.MyListings(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		listings, ok := dataField(t, body, "listings").([]any)
		require.True(t, ok)
		assert.Len(t, listings, 2)
	})

	t.Run("limit caps the page", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/my/listings?limit=1", nil)
		r = addAuthContext(r, seller, config.RoleCustomer)
		rec := httptest.NewRecorder()

		env.listings.MyListings(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		listings, ok := dataField(t, body, "listings").([]any)
		require.True(t, ok)
		assert.Len(t, listings, 1)
	})

	t.Run("garbage pagination params are rejected", func(t *testing.T) {
		for _, target := range []string{
			"/api/v1/my/listings?limit=banana",
			"/api/v1/my/listings?limit=-1",
			"/api/v1/my/listings?offset=2x",
		} {
			r := httptest.NewRequest(http.MethodGet, target, nil)
			r = addAuthContext(r, seller, config.RoleCustomer)
			rec := httptest.NewRecorder()

			env.listings.MyListings(rec, r)

			require.Equal(t, http.StatusBadRequest, rec.Code, target)
			body := decodeEnvelope(t, rec)
			assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
		}
	})
}
