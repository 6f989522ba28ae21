package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bidhouse/bidhouse/internal/cache"
	"github.com/bidhouse/bidhouse/internal/model"
	"github.com/bidhouse/bidhouse/internal/service"
)

type BidHandler struct {
	svc     service.BidServicer
	queries service.QueryServicer
	cache   cache.Cacher
}

func NewBidHandler(svc service.BidServicer, queries service.QueryServicer, c cache.Cacher) (*BidHandler, error) {
	return &BidHandler{
		svc:     svc,
		queries: queries,
		cache:   c,
	}, nil
}

// PlaceBid godoc
//
//	@Summary		Place a Bid on a Listing
//	@Description	Place a bid on an active listing; must exceed the current price and a bidder may bid once per listing
//	@Tags			Bids
//	@Accept			json
//	@Produce		json
//	@Param			listingId	path		string					true	"Listing ID"
//	@Param			bid			body		model.PlaceBidRequest	true	"Bid details"
//	@Success		201			{object}	map[string]any
//	@Failure		400			{object}	map[string]any
//	@Failure		403			{object}	map[string]any
//	@Failure		409			{object}	map[string]any
//	@Router			/listings/{listingId}/bids [post]
func (h *BidHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	listingID, ok := listingIDParam(w, r)
	if !ok {
		return
	}

	var req model.PlaceBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidJson.Error(), "Invalid JSON format", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidRequest.Error(), "Input validation failed", validationDetails(err))
		return
	}

	claims := GetUserClaims(r.Context())
	if claims == nil {
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrAuthFailed.Error(), "user claims not found in context", nil)
		return
	}

	bid, err := h.svc.PlaceBid(r.Context(), listingID, claims.UserID, req.Amount)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	// accepted bid changes current prices; drop the cached market view
	if err := h.cache.Delete(context.WithoutCancel(r.Context()), activeListingsBaseKey); err != nil {
		slog.Warn("[CACHE] failed to invalidate active listings", "error", err)
	}

	resp := map[string]any{
		"bid": bid,
	}
	RespondSuccessJSON(w, r, http.StatusCreated, "Bid placed successfully", resp)
}

// MyBids godoc
//
//	@Summary		Get Listings the current user has bid on
//	@Description	Each listing is annotated with the user's bid, the current price, and the outcome
//	@Tags			Bids
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		401	{object}	map[string]any
//	@Router			/my/bids [get]
func (h *BidHandler) MyBids(w http.ResponseWriter, r *http.Request) {
	claims := GetUserClaims(r.Context())
	if claims == nil {
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrAuthFailed.Error(), "user claims not found in context", nil)
		return
	}

	listings, err := h.queries.MyBids(r.Context(), claims.UserID)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	resp := map[string]any{
		"listings": listings,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "bidded listings fetched successfully", resp)
}
