package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bidhouse/bidhouse/internal/auction"
	"github.com/bidhouse/bidhouse/internal/cache"
	"github.com/bidhouse/bidhouse/internal/service"
	"github.com/bidhouse/bidhouse/pkg/config"
)

const activeListingsBaseKey = "active_listings"

// MarketHandler serves the public browse endpoints.
type MarketHandler struct {
	queries service.QueryServicer
	cache   cache.Cacher
}

func NewMarketHandler(queries service.QueryServicer, c cache.Cacher) (*MarketHandler, error) {
	return &MarketHandler{
		queries: queries,
		cache:   c,
	}, nil
}

// ActiveListings godoc
//
//	@Summary		Browse active Listings
//	@Description	List active listings annotated with current price; supports category, search and sort
//	@Tags			Market
//	@Produce		json
//	@Param			category	query		string	false	"Category filter"
//	@Param			q			query		string	false	"Search text across title and description"
//	@Param			sort		query		string	false	"price-asc | price-desc | featured"
//	@Success		200			{object}	map[string]any
//	@Router			/listings/active [get]
func (h *MarketHandler) ActiveListings(w http.ResponseWriter, r *http.Request) {
	filter := service.ListingFilter{
		Category:   auction.Category(r.URL.Query().Get("category")),
		SearchText: r.URL.Query().Get("q"),
	}
	if filter.Category != "" && !filter.Category.Valid() {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidRequest.Error(), "unknown category", nil)
		return
	}
	sortBy := service.SortOption(r.URL.Query().Get("sort"))

	// the unfiltered default view is hot; serve it from cache when fresh
	cacheKey := ""
	if filter.Category == "" && filter.SearchText == "" && sortBy == "" {
		cacheKey = activeListingsBaseKey
		if cached, found, err := h.cache.Get(r.Context(), cacheKey); err == nil && found {
			var listings []service.AnnotatedListing
			if err := json.Unmarshal([]byte(cached), &listings); err == nil {
				resp := map[string]any{"listings": listings}
				RespondSuccessJSON(w, r, http.StatusOK, "active listings fetched successfully", resp)
				return
			}
		}
	}

	listings, err := h.queries.ActiveListings(r.Context(), filter, sortBy)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	if cacheKey != "" {
		if encoded, err := json.Marshal(listings); err == nil {
			if err := h.cache.Set(r.Context(), cacheKey, string(encoded), config.ActiveListingsCacheTTL); err != nil {
				slog.Warn("[CACHE] failed to store active listings", "error", err)
			}
		}
	}

	resp := map[string]any{
		"listings": listings,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "active listings fetched successfully", resp)
}

// SoldListings godoc
//
//	@Summary		Browse sold Listings
//	@Description	List closed_sold listings annotated with winner and final price
//	@Tags			Market
//	@Produce		json
//	@Param			category	query		string	false	"Category filter"
//	@Success		200			{object}	map[string]any
//	@Router			/listings/sold [get]
func (h *MarketHandler) SoldListings(w http.ResponseWriter, r *http.Request) {
	filter := service.ListingFilter{
		Category: auction.Category(r.URL.Query().Get("category")),
	}
	if filter.Category != "" && !filter.Category.Valid() {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidRequest.Error(), "unknown category", nil)
		return
	}

	listings, err := h.queries.SoldListings(r.Context(), filter)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	resp := map[string]any{
		"listings": fmtSold(listings),
	}
	RespondSuccessJSON(w, r, http.StatusOK, "sold listings fetched successfully", resp)
}

// fmtSold keeps the response shape stable even when no items match.
func fmtSold(listings []service.SoldListing) []service.SoldListing {
	if listings == nil {
		return []service.SoldListing{}
	}
	return listings
}
