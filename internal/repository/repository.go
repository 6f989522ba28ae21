package repository

import (
	"context"

	"github.com/bidhouse/bidhouse/internal/auction"
	"github.com/google/uuid"
)

// ListingStore is the single source of truth for listing state.
type ListingStore interface {
	Create(ctx context.Context, l auction.Listing) (auction.Listing, error)
	Get(ctx context.Context, id uuid.UUID) (auction.Listing, error)
	// Update rewrites a listing's editable fields. The caller guarantees
	// the listing is still pending; the store re-checks and fails with
	// ErrInvalidState otherwise.
	Update(ctx context.Context, l auction.Listing) (auction.Listing, error)
	// Transition is an atomic compare-and-set on status. It fails with
	// ErrInvalidTransition when the current status is not `from`, which
	// guards the race between admin actions and the clock-driven sweep.
	Transition(ctx context.Context, id uuid.UUID, from, to auction.Status) (auction.Listing, error)
	ListByStatus(ctx context.Context, status auction.Status) ([]auction.Listing, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset uint) ([]auction.Listing, error)
}

// BidLedger owns the append-only bid collections keyed by listing.
type BidLedger interface {
	// Append re-checks, atomically with the insert, that the listing is
	// active and the amount exceeds the current price, so the bid
	// invariants hold even when several processes share the backend.
	// Fails with ErrAuctionNotActive, ErrDuplicateBid or BidTooLowError.
	Append(ctx context.Context, b auction.Bid) (auction.Bid, error)
	// BidsFor returns bids sorted descending by amount, ties broken by
	// earliest placedAt.
	BidsFor(ctx context.Context, listingID uuid.UUID) ([]auction.Bid, error)
	HighestBid(ctx context.Context, listingID uuid.UUID) (*auction.Bid, error)
	BidByBidder(ctx context.Context, listingID, bidderID uuid.UUID) (*auction.Bid, error)
	// ListingsBidBy returns the ids of all listings the bidder has bid on.
	ListingsBidBy(ctx context.Context, bidderID uuid.UUID) ([]uuid.UUID, error)
}
