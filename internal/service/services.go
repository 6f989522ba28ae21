package service

import (
	"github.com/bidhouse/bidhouse/internal/events"
	"github.com/bidhouse/bidhouse/internal/repository"
	"github.com/bidhouse/bidhouse/pkg/clock"
	"github.com/bidhouse/bidhouse/pkg/logger"
)

type Services struct {
	ListingService   ListingServicer
	BidService       BidServicer
	LifecycleService LifecycleServicer
	QueryService     QueryServicer
}

func NewServices(store repository.ListingStore, ledger repository.BidLedger, clk clock.Clock, pub events.Publisher, log *logger.Logger) (*Services, error) {
	// one lock set spans bid acceptance and lifecycle transitions
	locks := newKeyedMutex()

	listingService, err := NewListingService(store, clk)
	if err != nil {
		return nil, err
	}
	lifecycleService, err := NewLifecycleService(store, ledger, clk, pub, log, locks)
	if err != nil {
		return nil, err
	}
	bidService, err := NewBidService(store, ledger, lifecycleService, clk, pub, locks)
	if err != nil {
		return nil, err
	}
	queryService, err := NewQueryService(store, ledger, lifecycleService, clk)
	if err != nil {
		return nil, err
	}
	return &Services{
		ListingService:   listingService,
		BidService:       bidService,
		LifecycleService: lifecycleService,
		QueryService:     queryService,
	}, nil
}
