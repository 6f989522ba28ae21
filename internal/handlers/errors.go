package handlers

import "errors"

var (
	// common error code
	ErrInternalServer = errors.New("INTERNAL_SERVER_ERROR")
	ErrInvalidRequest = errors.New("VALIDATION_FAILED")
	ErrInvalidJson    = errors.New("INVALID_JSON_FORMAT")
	ErrMissingParam   = errors.New("MISSING_PARAM")
	ErrStorage        = errors.New("STORAGE_ERROR")

	// auth error code
	ErrAuthFailed   = errors.New("AUTH_FAILED")
	ErrMissingToken = errors.New("MISSING_TOKEN")
	ErrToken        = errors.New("TOKEN_ERROR")
	ErrForbidden    = errors.New("FORBIDDEN")

	// listing error code
	ErrListingNotFound    = errors.New("LISTING_NOT_FOUND")
	ErrInvalidTransition  = errors.New("INVALID_TRANSITION")
	ErrListingNotEditable = errors.New("LISTING_NOT_EDITABLE")
	ErrNotListingOwner    = errors.New("NOT_LISTING_OWNER")

	// bid error code
	ErrAuctionNotActive = errors.New("AUCTION_NOT_ACTIVE")
	ErrDuplicateBid     = errors.New("DUPLICATE_BID")
	ErrBidLow           = errors.New("BID_TOO_LOW")
	ErrSelfBidding      = errors.New("SELF_BIDDING_NOT_ALLOWED")
)
