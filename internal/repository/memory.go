package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bidhouse/bidhouse/internal/auction"
	"github.com/google/uuid"
)

// MemoryRepo is a concurrency-safe in-memory ListingStore + BidLedger.
// It is the default backend when no DB_DSN is configured and the backend
// every test runs against.
type MemoryRepo struct {
	mu       sync.RWMutex
	listings map[uuid.UUID]auction.Listing
	bids     map[uuid.UUID][]auction.Bid // key: listingID
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		listings: make(map[uuid.UUID]auction.Listing),
		bids:     make(map[uuid.UUID][]auction.Bid),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, l auction.Listing) (auction.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[l.ID]; ok {
		return auction.Listing{}, fmt.Errorf("create listing %s: %w", l.ID, auction.ErrStorage)
	}
	r.listings[l.ID] = l
	return l, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id uuid.UUID) (auction.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.listings[id]
	if !ok {
		return auction.Listing{}, fmt.Errorf("get listing %s: %w", id, auction.ErrNotFound)
	}
	return l, nil
}

func (r *MemoryRepo) Update(ctx context.Context, l auction.Listing) (auction.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.listings[l.ID]
	if !ok {
		return auction.Listing{}, fmt.Errorf("update listing %s: %w", l.ID, auction.ErrNotFound)
	}
	if current.Status != auction.StatusPending {
		return auction.Listing{}, fmt.Errorf("update listing %s: %w", l.ID, auction.ErrInvalidState)
	}
	l.Status = current.Status
	r.listings[l.ID] = l
	return l, nil
}

func (r *MemoryRepo) Transition(ctx context.Context, id uuid.UUID, from, to auction.Status) (auction.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[id]
	if !ok {
		return auction.Listing{}, fmt.Errorf("transition listing %s: %w", id, auction.ErrNotFound)
	}
	if l.Status != from || !auction.CanTransition(from, to) {
		return auction.Listing{}, fmt.Errorf("transition listing %s from %s to %s: %w", id, l.Status, to, auction.ErrInvalidTransition)
	}
	l.Status = to
	r.listings[id] = l
	return l, nil
}

func (r *MemoryRepo) ListByStatus(ctx context.Context, status auction.Status) ([]auction.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []auction.Listing
	for _, l := range r.listings {
		if l.Status == status {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset uint) ([]auction.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []auction.Listing
	for _, l := range r.listings {
		if l.SellerID == sellerID {
			all = append(all, l)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	if offset >= uint(len(all)) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < uint(len(all)) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryRepo) Append(ctx context.Context, b auction.Bid) (auction.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[b.ListingID]
	if !ok {
		return auction.Bid{}, fmt.Errorf("append bid for listing %s: %w", b.ListingID, auction.ErrNotFound)
	}
	if l.Status != auction.StatusActive {
		return auction.Bid{}, fmt.Errorf("append bid for listing %s: %w", b.ListingID, auction.ErrAuctionNotActive)
	}
	for _, existing := range r.bids[b.ListingID] {
		if existing.BidderID == b.BidderID {
			return auction.Bid{}, fmt.Errorf("append bid for listing %s: %w", b.ListingID, auction.ErrDuplicateBid)
		}
	}
	if current := auction.CurrentPrice(l, r.bids[b.ListingID]); !b.Amount.GreaterThan(current) {
		return auction.Bid{}, &auction.BidTooLowError{Minimum: auction.MinimumBid(current)}
	}
	r.bids[b.ListingID] = append(r.bids[b.ListingID], b)
	return b, nil
}

func (r *MemoryRepo) BidsFor(ctx context.Context, listingID uuid.UUID) ([]auction.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bids := append([]auction.Bid(nil), r.bids[listingID]...)
	sort.Slice(bids, func(i, j int) bool {
		if !bids[i].Amount.Equal(bids[j].Amount) {
			return bids[i].Amount.GreaterThan(bids[j].Amount)
		}
		return bids[i].PlacedAt.Before(bids[j].PlacedAt)
	})
	return bids, nil
}

func (r *MemoryRepo) HighestBid(ctx context.Context, listingID uuid.UUID) (*auction.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	winner, ok := auction.WinningBid(r.bids[listingID])
	if !ok {
		return nil, nil
	}
	return &winner, nil
}

func (r *MemoryRepo) BidByBidder(ctx context.Context, listingID, bidderID uuid.UUID) (*auction.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.bids[listingID] {
		if b.BidderID == bidderID {
			bid := b
			return &bid, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepo) ListingsBidBy(ctx context.Context, bidderID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []uuid.UUID
	for listingID, bids := range r.bids {
		for _, b := range bids {
			if b.BidderID == bidderID {
				ids = append(ids, listingID)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}
