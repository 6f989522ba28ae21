package service

import (
	"context"
	"fmt"

	"github.com/bidhouse/bidhouse/internal/auction"
	"github.com/bidhouse/bidhouse/internal/events"
	"github.com/bidhouse/bidhouse/internal/repository"
	"github.com/bidhouse/bidhouse/pkg/clock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BidServicer interface {
	PlaceBid(ctx context.Context, listingID, bidderID uuid.UUID, amount decimal.Decimal) (auction.Bid, error)
	BidsFor(ctx context.Context, listingID uuid.UUID) ([]auction.Bid, error)
	HighestBid(ctx context.Context, listingID uuid.UUID) (*auction.Bid, error)
}

type BidService struct {
	store     repository.ListingStore
	ledger    repository.BidLedger
	lifecycle LifecycleServicer
	clk       clock.Clock
	pub       events.Publisher
	locks     *keyedMutex
}

// NewBidService wires bid acceptance. locks is shared with the lifecycle
// service so the sweep's close transition and an in-flight append on the
// same listing are strictly ordered.
func NewBidService(store repository.ListingStore, ledger repository.BidLedger, lifecycle LifecycleServicer, clk clock.Clock, pub events.Publisher, locks *keyedMutex) (*BidService, error) {
	return &BidService{
		store:     store,
		ledger:    ledger,
		lifecycle: lifecycle,
		clk:       clk,
		pub:       pub,
		locks:     locks,
	}, nil
}

// PlaceBid validates and appends a bid. All checks and the append run
// under the listing's lock so two concurrent bids never both see the same
// stale current price, and the sweep cannot close the listing between the
// status check and the append.
func (s *BidService) PlaceBid(ctx context.Context, listingID, bidderID uuid.UUID, amount decimal.Decimal) (auction.Bid, error) {
	now := s.clk.Now()

	l, err := s.store.Get(ctx, listingID)
	if err != nil {
		return auction.Bid{}, err
	}
	// apply any due transition before judging the status; Refresh takes
	// the listing's lock itself, so it runs before we hold it
	if _, err = s.lifecycle.Refresh(ctx, l, now); err != nil {
		return auction.Bid{}, err
	}

	unlock := s.locks.lock(listingID)
	defer unlock()

	// re-read under the lock: the sweep may have closed the listing
	// between the refresh and the lock acquisition
	if l, err = s.store.Get(ctx, listingID); err != nil {
		return auction.Bid{}, err
	}

	if l.Status != auction.StatusActive || now.Before(l.StartTime) || !now.Before(l.EndTime) {
		return auction.Bid{}, fmt.Errorf("place bid on listing %s: %w", listingID, auction.ErrAuctionNotActive)
	}
	if bidderID == l.SellerID {
		return auction.Bid{}, fmt.Errorf("place bid on listing %s: %w", listingID, auction.ErrSellerCannotBid)
	}

	existing, err := s.ledger.BidByBidder(ctx, listingID, bidderID)
	if err != nil {
		return auction.Bid{}, err
	}
	if existing != nil {
		return auction.Bid{}, fmt.Errorf("place bid on listing %s: %w", listingID, auction.ErrDuplicateBid)
	}

	bids, err := s.ledger.BidsFor(ctx, listingID)
	if err != nil {
		return auction.Bid{}, err
	}
	current := auction.CurrentPrice(l, bids)
	if !amount.GreaterThan(current) {
		return auction.Bid{}, &auction.BidTooLowError{Minimum: auction.MinimumBid(current)}
	}

	bid := auction.Bid{
		ID:        uuid.New(),
		ListingID: listingID,
		BidderID:  bidderID,
		Amount:    amount,
		PlacedAt:  now,
	}
	accepted, err := s.ledger.Append(ctx, bid)
	if err != nil {
		return auction.Bid{}, err
	}

	if s.pub != nil {
		s.pub.Publish(ctx, events.Event{
			Type:       events.TypeBidPlaced,
			ListingID:  listingID,
			OccurredAt: now,
			Payload:    map[string]any{"bid_id": accepted.ID, "amount": accepted.Amount},
		})
	}
	return accepted, nil
}

func (s *BidService) BidsFor(ctx context.Context, listingID uuid.UUID) ([]auction.Bid, error) {
	if _, err := s.store.Get(ctx, listingID); err != nil {
		return nil, err
	}
	return s.ledger.BidsFor(ctx, listingID)
}

func (s *BidService) HighestBid(ctx context.Context, listingID uuid.UUID) (*auction.Bid, error) {
	if _, err := s.store.Get(ctx, listingID); err != nil {
		return nil, err
	}
	return s.ledger.HighestBid(ctx, listingID)
}
