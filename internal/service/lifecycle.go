package service

import (
	"context"
	"errors"
	"time"

	"github.com/bidhouse/bidhouse/internal/auction"
	"github.com/bidhouse/bidhouse/internal/events"
	"github.com/bidhouse/bidhouse/internal/repository"
	"github.com/bidhouse/bidhouse/pkg/clock"
	"github.com/bidhouse/bidhouse/pkg/logger"
	"github.com/google/uuid"
)

type LifecycleServicer interface {
	Approve(ctx context.Context, id uuid.UUID) (auction.Listing, error)
	Reject(ctx context.Context, id uuid.UUID) (auction.Listing, error)
	// Sweep advances every scheduled listing past its startTime to active
	// and every active listing past its endTime to closed_sold/closed_unsold.
	// Idempotent and safe to run concurrently; CAS losers are no-ops.
	Sweep(ctx context.Context, now time.Time) (advanced int, err error)
	// Refresh lazily applies any due transition to a single listing before
	// a state-dependent read.
	Refresh(ctx context.Context, l auction.Listing, now time.Time) (auction.Listing, error)
}

type LifecycleService struct {
	store  repository.ListingStore
	ledger repository.BidLedger
	clk    clock.Clock
	pub    events.Publisher
	log    *logger.Logger
	locks  *keyedMutex
}

// NewLifecycleService wires the lifecycle transitions. locks is shared
// with the bid service so a close never interleaves with a bid append on
// the same listing.
func NewLifecycleService(store repository.ListingStore, ledger repository.BidLedger, clk clock.Clock, pub events.Publisher, log *logger.Logger, locks *keyedMutex) (*LifecycleService, error) {
	return &LifecycleService{store: store, ledger: ledger, clk: clk, pub: pub, log: log, locks: locks}, nil
}

func (s *LifecycleService) Approve(ctx context.Context, id uuid.UUID) (auction.Listing, error) {
	// approval lands on active directly when the start time already passed
	target := auction.StatusScheduled
	if l, err := s.store.Get(ctx, id); err != nil {
		return auction.Listing{}, err
	} else if !s.clk.Now().Before(l.StartTime) {
		target = auction.StatusActive
	}

	l, err := s.store.Transition(ctx, id, auction.StatusPending, target)
	if err != nil {
		return auction.Listing{}, err
	}
	if target == auction.StatusActive {
		s.publish(ctx, events.TypeListingActivated, l)
	}
	return l, nil
}

func (s *LifecycleService) Reject(ctx context.Context, id uuid.UUID) (auction.Listing, error) {
	return s.store.Transition(ctx, id, auction.StatusPending, auction.StatusRejected)
}

func (s *LifecycleService) Sweep(ctx context.Context, now time.Time) (int, error) {
	advanced := 0

	scheduled, err := s.store.ListByStatus(ctx, auction.StatusScheduled)
	if err != nil {
		return advanced, err
	}
	for _, l := range scheduled {
		if l.StartTime.After(now) {
			continue
		}
		updated, err := s.store.Transition(ctx, l.ID, auction.StatusScheduled, auction.StatusActive)
		if errors.Is(err, auction.ErrInvalidTransition) {
			continue // lost the race, already applied elsewhere
		}
		if err != nil {
			return advanced, err
		}
		advanced++
		s.publish(ctx, events.TypeListingActivated, updated)
	}

	active, err := s.store.ListByStatus(ctx, auction.StatusActive)
	if err != nil {
		return advanced, err
	}
	for _, l := range active {
		if l.EndTime.After(now) {
			continue
		}
		updated, err := s.closeLocked(ctx, l)
		if errors.Is(err, auction.ErrInvalidTransition) {
			continue
		}
		if err != nil {
			return advanced, err
		}
		advanced++
		s.publish(ctx, events.TypeListingClosed, updated)
	}

	if advanced > 0 {
		s.log.Infow("sweep advanced listings", "count", advanced)
	}
	return advanced, nil
}

func (s *LifecycleService) Refresh(ctx context.Context, l auction.Listing, now time.Time) (auction.Listing, error) {
	unlock := s.locks.lock(l.ID)
	defer unlock()

	if l.Status == auction.StatusScheduled && !l.StartTime.After(now) {
		updated, err := s.store.Transition(ctx, l.ID, auction.StatusScheduled, auction.StatusActive)
		if errors.Is(err, auction.ErrInvalidTransition) {
			return s.store.Get(ctx, l.ID)
		}
		if err != nil {
			return auction.Listing{}, err
		}
		s.publish(ctx, events.TypeListingActivated, updated)
		l = updated
	}

	if l.Status == auction.StatusActive && !l.EndTime.After(now) {
		updated, err := s.closeListing(ctx, l)
		if errors.Is(err, auction.ErrInvalidTransition) {
			return s.store.Get(ctx, l.ID)
		}
		if err != nil {
			return auction.Listing{}, err
		}
		s.publish(ctx, events.TypeListingClosed, updated)
		l = updated
	}

	return l, nil
}

// closeLocked takes the listing's lock before closing so a bid that
// already passed validation is appended before the status flips.
func (s *LifecycleService) closeLocked(ctx context.Context, l auction.Listing) (auction.Listing, error) {
	unlock := s.locks.lock(l.ID)
	defer unlock()
	return s.closeListing(ctx, l)
}

// closeListing moves an expired active listing to its terminal state:
// closed_sold when at least one bid exists, closed_unsold otherwise.
// The winner itself stays derived on read so it is correct even when the
// sweep runs late.
func (s *LifecycleService) closeListing(ctx context.Context, l auction.Listing) (auction.Listing, error) {
	highest, err := s.ledger.HighestBid(ctx, l.ID)
	if err != nil {
		return auction.Listing{}, err
	}
	target := auction.StatusClosedUnsold
	if highest != nil {
		target = auction.StatusClosedSold
	}
	return s.store.Transition(ctx, l.ID, auction.StatusActive, target)
}

func (s *LifecycleService) publish(ctx context.Context, eventType string, l auction.Listing) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(ctx, events.Event{
		Type:       eventType,
		ListingID:  l.ID,
		OccurredAt: s.clk.Now(),
		Payload:    map[string]any{"status": l.Status},
	})
}
