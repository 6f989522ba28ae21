package server

import (
	"encoding/json"
	"net/http"
	"time"

	mw "github.com/bidhouse/bidhouse/internal/middleware"
	"github.com/bidhouse/bidhouse/pkg/config"
	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes(mux *chi.Mux) {
	auth := mw.AuthMiddleware(s.Deps.JwtManager)
	admin := mw.RequireRole(config.RoleAdmin)

	mux.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthCheck)

		// public browse endpoints
		r.Get("/listings/active", s.Deps.MarketHandler.ActiveListings)
		r.Get("/listings/sold", s.Deps.MarketHandler.SoldListings)
		r.Get("/listings/{listingId}", s.Deps.ListingHandler.GetListing)

		// authenticated customer endpoints
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/listings", s.Deps.ListingHandler.CreateListing)
			r.Patch("/listings/{listingId}", s.Deps.ListingHandler.UpdateListing)
			r.Post("/listings/{listingId}/bids", s.Deps.BidHandler.PlaceBid)
			r.Get("/my/bids", s.Deps.BidHandler.MyBids)
			r.Get("/my/listings", s.Deps.ListingHandler.MyListings)
		})

		// admin review endpoints
		r.Group(func(r chi.Router) {
			r.Use(auth, admin)
			r.Get("/listings/pending", s.Deps.AdminHandler.PendingListings)
			r.Post("/listings/{listingId}/approve", s.Deps.AdminHandler.ApproveListing)
			r.Post("/listings/{listingId}/reject", s.Deps.AdminHandler.RejectListing)
		})
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"message": "ok",
		"time":    time.Now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	json.NewEncoder(w).Encode(resp)

}
