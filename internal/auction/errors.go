package auction

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("listing not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidState      = errors.New("listing is only editable while pending")

	// bid acceptance
	ErrAuctionNotActive = errors.New("auction is not active")
	ErrSellerCannotBid  = errors.New("seller cannot bid on their own listing")
	ErrDuplicateBid     = errors.New("bidder already has an accepted bid on this listing")
	ErrBidTooLow        = errors.New("bid amount too low")

	ErrValidation = errors.New("validation failed")
	ErrStorage    = errors.New("storage failure")
)

// ValidationError reports the field a client must fix before resubmitting.
type ValidationError struct {
	Field string
	Issue string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Issue)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// BidTooLowError carries the minimum acceptable amount so the caller can
// retry correctly.
type BidTooLowError struct {
	Minimum decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid amount too low: minimum acceptable bid is %s", e.Minimum.String())
}

func (e *BidTooLowError) Unwrap() error { return ErrBidTooLow }
