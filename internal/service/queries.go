package service

import (
	"context"
	"sort"
	"strings"

	"github.com/bidhouse/bidhouse/internal/auction"
	"github.com/bidhouse/bidhouse/internal/repository"
	"github.com/bidhouse/bidhouse/pkg/clock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SortOption string

const (
	SortPriceAsc  SortOption = "price-asc"
	SortPriceDesc SortOption = "price-desc"
	SortFeatured  SortOption = "featured"
)

type Outcome string

const (
	OutcomeWon        Outcome = "won"
	OutcomeLost       Outcome = "lost"
	OutcomeInProgress Outcome = "in_progress"
)

type ListingFilter struct {
	Category   auction.Category
	SearchText string
}

// AnnotatedListing is an active listing with its derived price.
type AnnotatedListing struct {
	auction.Listing
	CurrentPrice decimal.Decimal `json:"current_price"`
	BidCount     int             `json:"bid_count"`
}

// SoldListing is a closed_sold listing with its winner and final price.
type SoldListing struct {
	auction.Listing
	WinnerID   uuid.UUID       `json:"winner_id"`
	FinalPrice decimal.Decimal `json:"final_price"`
}

// MyBidListing is a listing the user bid on, seen from their side.
type MyBidListing struct {
	auction.Listing
	MyBid        decimal.Decimal `json:"my_bid"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Outcome      Outcome         `json:"outcome"`
}

type QueryServicer interface {
	ActiveListings(ctx context.Context, filter ListingFilter, sortBy SortOption) ([]AnnotatedListing, error)
	PendingListings(ctx context.Context) ([]auction.Listing, error)
	SoldListings(ctx context.Context, filter ListingFilter) ([]SoldListing, error)
	MyBids(ctx context.Context, userID uuid.UUID) ([]MyBidListing, error)
}

type QueryService struct {
	store     repository.ListingStore
	ledger    repository.BidLedger
	lifecycle LifecycleServicer
	clk       clock.Clock
}

func NewQueryService(store repository.ListingStore, ledger repository.BidLedger, lifecycle LifecycleServicer, clk clock.Clock) (*QueryService, error) {
	return &QueryService{store: store, ledger: ledger, lifecycle: lifecycle, clk: clk}, nil
}

func (s *QueryService) ActiveListings(ctx context.Context, filter ListingFilter, sortBy SortOption) ([]AnnotatedListing, error) {
	// state-dependent read: advance due listings first
	if _, err := s.lifecycle.Sweep(ctx, s.clk.Now()); err != nil {
		return nil, err
	}

	listings, err := s.store.ListByStatus(ctx, auction.StatusActive)
	if err != nil {
		return nil, err
	}

	out := make([]AnnotatedListing, 0, len(listings))
	for _, l := range listings {
		if !matchesFilter(l, filter) {
			continue
		}
		bids, err := s.ledger.BidsFor(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, AnnotatedListing{
			Listing:      l,
			CurrentPrice: auction.CurrentPrice(l, bids),
			BidCount:     len(bids),
		})
	}

	switch sortBy {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CurrentPrice.LessThan(out[j].CurrentPrice) })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CurrentPrice.GreaterThan(out[j].CurrentPrice) })
	case SortFeatured:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].IsFeatured != out[j].IsFeatured {
				return out[i].IsFeatured
			}
			return out[i].StartTime.After(out[j].StartTime)
		})
	}
	return out, nil
}

func (s *QueryService) PendingListings(ctx context.Context) ([]auction.Listing, error) {
	return s.store.ListByStatus(ctx, auction.StatusPending)
}

func (s *QueryService) SoldListings(ctx context.Context, filter ListingFilter) ([]SoldListing, error) {
	if _, err := s.lifecycle.Sweep(ctx, s.clk.Now()); err != nil {
		return nil, err
	}

	listings, err := s.store.ListByStatus(ctx, auction.StatusClosedSold)
	if err != nil {
		return nil, err
	}

	out := make([]SoldListing, 0, len(listings))
	for _, l := range listings {
		if !matchesFilter(l, ListingFilter{Category: filter.Category}) {
			continue
		}
		bids, err := s.ledger.BidsFor(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		winner, ok := auction.WinningBid(bids)
		if !ok {
			// closed_sold guarantees at least one bid
			continue
		}
		out = append(out, SoldListing{
			Listing:    l,
			WinnerID:   winner.BidderID,
			FinalPrice: winner.Amount,
		})
	}
	return out, nil
}

func (s *QueryService) MyBids(ctx context.Context, userID uuid.UUID) ([]MyBidListing, error) {
	if _, err := s.lifecycle.Sweep(ctx, s.clk.Now()); err != nil {
		return nil, err
	}

	ids, err := s.ledger.ListingsBidBy(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]MyBidListing, 0, len(ids))
	for _, id := range ids {
		l, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		myBid, err := s.ledger.BidByBidder(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		if myBid == nil {
			continue
		}
		bids, err := s.ledger.BidsFor(ctx, id)
		if err != nil {
			return nil, err
		}

		outcome := OutcomeInProgress
		if l.Status.Terminal() {
			outcome = OutcomeLost
			if winner, ok := auction.WinningBid(bids); ok && l.Status == auction.StatusClosedSold && winner.ID == myBid.ID {
				outcome = OutcomeWon
			}
		}
		out = append(out, MyBidListing{
			Listing:      l,
			MyBid:        myBid.Amount,
			CurrentPrice: auction.CurrentPrice(l, bids),
			Outcome:      outcome,
		})
	}
	return out, nil
}

func matchesFilter(l auction.Listing, filter ListingFilter) bool {
	if filter.Category != "" && l.Category != filter.Category {
		return false
	}
	if filter.SearchText != "" {
		needle := strings.ToLower(filter.SearchText)
		if !strings.Contains(strings.ToLower(l.Title), needle) &&
			!strings.Contains(strings.ToLower(l.Description), needle) {
			return false
		}
	}
	return true
}
