package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bidhouse/bidhouse/internal/auction"
	"github.com/bidhouse/bidhouse/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingListingsHandler(t *testing.T) {
	env := newHandlerEnv(t)
	env.pendingListing(t, uuid.New(), 100)
	env.pendingListing(t, uuid.New(), 200)
	env.activeListing(t, uuid.New(), 300)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/listings/pending", nil)
	r = addAuthContext(r, uuid.New(), config.RoleAdmin)
	rec := httptest.NewRecorder()

	env.admin.PendingListings(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	listings, ok := dataField(t, body, "listings").([]any)
	require.True(t, ok)
	assert.Len(t, listings, 2)
}

func TestApproveListingHandler(t *testing.T) {
	t.Run("approval past start time goes straight to active", func(t *testing.T) {
		env := newHandlerEnv(t)
		listing := env.pendingListing(t, uuid.New(), 100)
		require.NoError(t, env.cache.Set(context.Background(), activeListingsBaseKey, "[]", time.Minute))

		r := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+listing.ID.String()+"/approve", nil)
		r = addAuthContext(r, uuid.New(), config.RoleAdmin)
		r = addListingParam(r, listing.ID)
		rec := httptest.NewRecorder()

		env.admin.ApproveListing(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		got, ok := dataField(t, body, "listing").(map[string]any)
		require.True(t, ok)
		assert.Equal(t, string(auction.StatusActive), got["status"])

		_, found, err := env.cache.Get(context.Background(), activeListingsBaseKey)
		require.NoError(t, err)
		assert.False(t, found, "market view should be invalidated on approval")
	})

	t.Run("approving twice conflicts", func(t *testing.T) {
		env := newHandlerEnv(t)
		listing := env.activeListing(t, uuid.New(), 100)

		r := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+listing.ID.String()+"/approve", nil)
		r = addAuthContext(r, uuid.New(), config.RoleAdmin)
		r = addListingParam(r, listing.ID)
		rec := httptest.NewRecorder()

		env.admin.ApproveListing(rec, r)

		require.Equal(t, http.StatusConflict, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "INVALID_TRANSITION", errorCode(t, body))
	})

	t.Run("unknown listing is 404", func(t *testing.T) {
		env := newHandlerEnv(t)

		r := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+uuid.NewString()+"/approve", nil)
		r = addAuthContext(r, uuid.New(), config.RoleAdmin)
		r = addListingParam(r, uuid.New())
		rec := httptest.NewRecorder()

		env.admin.ApproveListing(rec, r)

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRejectListingHandler(t *testing.T) {
	t.Run("rejection is terminal", func(t *testing.T) {
		env := newHandlerEnv(t)
		listing := env.pendingListing(t, uuid.New(), 100)

		r := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+listing.ID.String()+"/reject", nil)
		r = addAuthContext(r, uuid.New(), config.RoleAdmin)
		r = addListingParam(r, listing.ID)
		rec := httptest.NewRecorder()

		env.admin.RejectListing(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		got, ok := dataField(t, body, "listing").(map[string]any)
		require.True(t, ok)
		assert.Equal(t, string(auction.StatusRejected), got["status"])
	})

	t.Run("cannot reject an active listing", func(t *testing.T) {
		env := newHandlerEnv(t)
		listing := env.activeListing(t, uuid.New(), 100)

		r := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+listing.ID.String()+"/reject", nil)
		r = addAuthContext(r, uuid.New(), config.RoleAdmin)
		r = addListingParam(r, listing.ID)
		rec := httptest.NewRecorder()

		env.admin.RejectListing(rec, r)

		require.Equal(t, http.StatusConflict, rec.Code)
	})
}
