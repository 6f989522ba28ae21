package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bidhouse/bidhouse/internal/auction"
	"github.com/bidhouse/bidhouse/internal/cache"
	"github.com/bidhouse/bidhouse/internal/service"
)

// AdminHandler serves the review workflow: pending queue, approve, reject.
type AdminHandler struct {
	lifecycle service.LifecycleServicer
	queries   service.QueryServicer
	cache     cache.Cacher
}

func NewAdminHandler(lifecycle service.LifecycleServicer, queries service.QueryServicer, c cache.Cacher) (*AdminHandler, error) {
	return &AdminHandler{
		lifecycle: lifecycle,
		queries:   queries,
		cache:     c,
	}, nil
}

// PendingListings godoc
//
//	@Summary		Get Listings awaiting review
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Router			/listings/pending [get]
func (h *AdminHandler) PendingListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.queries.PendingListings(r.Context())
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	if listings == nil {
		listings = []auction.Listing{}
	}

	resp := map[string]any{
		"listings": listings,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "pending listings fetched successfully", resp)
}

// ApproveListing godoc
//
//	@Summary		Approve a pending Listing
//	@Description	Moves a pending listing to scheduled, or straight to active when its start time has passed
//	@Tags			Admin
//	@Produce		json
//	@Param			listingId	path		string	true	"Listing ID"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	map[string]any
//	@Failure		409			{object}	map[string]any
//	@Router			/listings/{listingId}/approve [post]
func (h *AdminHandler) ApproveListing(w http.ResponseWriter, r *http.Request) {
	listingID, ok := listingIDParam(w, r)
	if !ok {
		return
	}

	listing, err := h.lifecycle.Approve(r.Context(), listingID)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	h.invalidateMarket(r)

	resp := map[string]any{
		"listing": listing,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Listing approved", resp)
}

// RejectListing godoc
//
//	@Summary		Reject a pending Listing
//	@Tags			Admin
//	@Produce		json
//	@Param			listingId	path		string	true	"Listing ID"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	map[string]any
//	@Failure		409			{object}	map[string]any
//	@Router			/listings/{listingId}/reject [post]
func (h *AdminHandler) RejectListing(w http.ResponseWriter, r *http.Request) {
	listingID, ok := listingIDParam(w, r)
	if !ok {
		return
	}

	listing, err := h.lifecycle.Reject(r.Context(), listingID)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	resp := map[string]any{
		"listing": listing,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Listing rejected", resp)
}

func (h *AdminHandler) invalidateMarket(r *http.Request) {
	if err := h.cache.Delete(context.WithoutCancel(r.Context()), activeListingsBaseKey); err != nil {
		slog.Warn("[CACHE] failed to invalidate active listings", "error", err)
	}
}
