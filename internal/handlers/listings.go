package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/bidhouse/bidhouse/internal/auction"
	"github.com/bidhouse/bidhouse/internal/model"
	"github.com/bidhouse/bidhouse/internal/service"
	"github.com/bidhouse/bidhouse/pkg/clock"
	"github.com/bidhouse/bidhouse/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const listingParamKey string = "listingId"

var validate = validator.GetValidator()

type ListingHandler struct {
	svc       service.ListingServicer
	bids      service.BidServicer
	lifecycle service.LifecycleServicer
	clk       clock.Clock
}

func NewListingHandler(svc service.ListingServicer, bids service.BidServicer, lifecycle service.LifecycleServicer, clk clock.Clock) (*ListingHandler, error) {
	return &ListingHandler{
		svc:       svc,
		bids:      bids,
		lifecycle: lifecycle,
		clk:       clk,
	}, nil
}

// CreateListing godoc
//
//	@Summary		Create a new Listing
//	@Description	Submit a new auction listing for admin review
//	@Tags			Listings
//	@Accept			json
//	@Produce		json
//	@Param			listing	body		model.CreateListingRequest	true	"Listing details"
//	@Success		201		{object}	map[string]any
//	@Failure		400		{object}	map[string]any
//	@Failure		401		{object}	map[string]any
//	@Router			/listings [post]
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req model.CreateListingRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidJson.Error(), "invalid json format", nil)
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

	listing, err := h.svc.Create(r.Context(), service.CreateListingInput{
		SellerID:      claims.UserID,
		Title:         req.Title,
		Description:   req.Description,
		Category:      auction.Category(req.Category),
		StartingPrice: req.StartingPrice,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Images:        imagesFromPayload(req.Images),
		IsFeatured:    req.IsFeatured,
	})
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	resp := map[string]any{
		"listing": listing,
	}
	RespondSuccessJSON(w, r, http.StatusCreated, "Listing submitted for review", resp)
}

// GetListing godoc
//
//	@Summary		Get Listing detail
//	@Description	Retrieve a listing with its bid history, highest first
//	@Tags			Listings
//	@Produce		json
//	@Param			listingId	path		string	true	"Listing ID"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	map[string]any
//	@Router			/listings/{listingId} [get]
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	listingID, ok := listingIDParam(w, r)
	if !ok {
		return
	}

	listing, err := h.svc.Get(r.Context(), listingID)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	// apply any overdue transition before reporting state
	listing, err = h.lifecycle.Refresh(r.Context(), listing, h.clk.Now())
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	bids, err := h.bids.BidsFor(r.Context(), listingID)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	resp := map[string]any{
		"listing":       listing,
		"bids":          bids,
		"current_price": auction.CurrentPrice(listing, bids),
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Listing fetched successfully", resp)
}

// UpdateListing godoc
//
//	@Summary		Update a pending Listing
//	@Description	Edit listing fields; permitted only while the listing is pending and only by its seller
//	@Tags			Listings
//	@Accept			json
//	@Produce		json
//	@Param			listingId	path		string						true	"Listing ID"
//	@Param			listing		body		model.UpdateListingRequest	true	"Fields to change"
//	@Success		200			{object}	map[string]any
//	@Failure		403			{object}	map[string]any
//	@Failure		409			{object}	map[string]any
//	@Router			/listings/{listingId} [patch]
func (h *ListingHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	listingID, ok := listingIDParam(w, r)
	if !ok {
		return
	}

	var req model.UpdateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidJson.Error(), "invalid json format", nil)
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

	in := service.UpdateListingInput{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if req.Category != nil {
		category := auction.Category(*req.Category)
		in.Category = &category
	}
	if req.Images != nil {
		in.Images = imagesFromPayload(req.Images)
	}

	listing, err := h.svc.Update(r.Context(), listingID, claims.UserID, in)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	resp := map[string]any{
		"listing": listing,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Listing updated successfully", resp)
}

// MyListings godoc
//
//	@Summary		Get the current seller's Listings
//	@Tags			Listings
//	@Produce		json
//	@Param			limit	query		int	false	"Number of listings to return"
//	@Param			offset	query		int	false	"Number of listings to skip"
//	@Success		200		{object}	map[string]any
//	@Failure		401		{object}	map[string]any
//	@Router			/my/listings [get]
func (h *ListingHandler) MyListings(w http.ResponseWriter, r *http.Request) {
	claims := GetUserClaims(r.Context())
	if claims == nil {
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrAuthFailed.Error(), "user claims not found in context", nil)
		return
	}

	// Default limit is 10 and offset is 0
	var limit uint = 10
	var offset uint = 0
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.ParseUint(limitParam, 10, 32)
		if err != nil {
			RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidRequest.Error(), "limit must be a non-negative integer", nil)
			return
		}
		limit = uint(parsed)
	}
	if offsetParam := r.URL.Query().Get("offset"); offsetParam != "" {
		parsed, err := strconv.ParseUint(offsetParam, 10, 32)
		if err != nil {
			RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidRequest.Error(), "offset must be a non-negative integer", nil)
			return
		}
		offset = uint(parsed)
	}

	listings, err := h.svc.BySeller(r.Context(), claims.UserID, limit, offset)
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
	RespondSuccessJSON(w, r, http.StatusOK, "listings fetched successfully", resp)
}

func listingIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, listingParamKey)
	if raw == "" {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrMissingParam.Error(), "Listing ID is required", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrMissingParam.Error(), "Listing ID is not a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

func imagesFromPayload(payload []model.ImagePayload) []auction.Image {
	if payload == nil {
		return nil
	}
	images := make([]auction.Image, 0, len(payload))
	for _, img := range payload {
		images = append(images, auction.Image{URL: img.URL, IsPrimary: img.IsPrimary})
	}
	return images
}
