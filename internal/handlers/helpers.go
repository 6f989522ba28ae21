package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bidhouse/bidhouse/internal/auction"
	"github.com/bidhouse/bidhouse/internal/model"
	"github.com/bidhouse/bidhouse/internal/service"
	"github.com/bidhouse/bidhouse/pkg/config"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var requestIDKey = "X-Request-ID"

func writeJson(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to write json response", "status", status, "error", err)
	}
}

func GetUserClaims(ctx context.Context) *config.UserClaims {
	claims, ok := ctx.Value(config.UserClaimKey).(*config.UserClaims)
	if !ok {
		return nil
	}
	return claims
}

func RespondSuccessJSON[T any](w http.ResponseWriter, r *http.Request, status int, message string, data T) {

	// fetch request ID , if not found generate new UUID
	reqID := r.Header.Get(requestIDKey)
	if reqID == "" {
		reqID = uuid.NewString()
	}

	// This ensures the client gets the ID whether they sent it or we created it.
	w.Header().Set(requestIDKey, reqID)

	payload := model.APIResponse[T]{
		Status:  "success",
		Message: message,
		Metadata: model.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: reqID,
		},
		Data:  data,
		Error: nil,
	}
	writeJson(w, status, payload)
}

func RespondErrorJSON(w http.ResponseWriter, r *http.Request, status int, code string, message string, details []model.ErrorDetails) {
	// fetch request ID , if not found generate new UUID
	reqID := r.Header.Get(requestIDKey)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	// This ensures the client gets the ID whether they sent it or we created it.
	w.Header().Set(requestIDKey, reqID)

	payload := model.APIResponse[any]{
		Status: "error",
		Metadata: model.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: reqID,
		},
		Error: &model.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	writeJson(w, status, payload)
}

// validationDetails flattens validator errors into field-level details.
func validationDetails(err error) []model.ErrorDetails {
	var details []model.ErrorDetails
	if validErrs, ok := err.(validator.ValidationErrors); ok {
		for _, vErr := range validErrs {
			details = append(details, model.ErrorDetails{
				Field: vErr.Field(),
				Issue: fmt.Sprintf("failed on tag '%s' with param '%s'", vErr.Tag(), vErr.Param()),
			})
		}
	}
	return details
}

// RespondDomainError maps the engine's error taxonomy onto HTTP statuses
// and stable error codes.
func RespondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *auction.ValidationError
	if errors.As(err, &validationErr) {
		details := []model.ErrorDetails{{Field: validationErr.Field, Issue: validationErr.Issue}}
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidRequest.Error(), "Input validation failed", details)
		return
	}

	var bidTooLow *auction.BidTooLowError
	if errors.As(err, &bidTooLow) {
		details := []model.ErrorDetails{{Field: "amount", Issue: "minimum acceptable bid is " + bidTooLow.Minimum.String()}}
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrBidLow.Error(), "Your bid must be higher than the current price", details)
		return
	}

	switch {
	case errors.Is(err, auction.ErrNotFound):
		RespondErrorJSON(w, r, http.StatusNotFound, ErrListingNotFound.Error(), "Listing not found", nil)
	case errors.Is(err, auction.ErrInvalidTransition):
		RespondErrorJSON(w, r, http.StatusConflict, ErrInvalidTransition.Error(), "Listing is not in the required state for this action", nil)
	case errors.Is(err, auction.ErrInvalidState):
		RespondErrorJSON(w, r, http.StatusConflict, ErrListingNotEditable.Error(), "Listing can only be edited while pending", nil)
	case errors.Is(err, auction.ErrAuctionNotActive):
		RespondErrorJSON(w, r, http.StatusConflict, ErrAuctionNotActive.Error(), "Auction is not open for bidding", nil)
	case errors.Is(err, auction.ErrDuplicateBid):
		RespondErrorJSON(w, r, http.StatusConflict, ErrDuplicateBid.Error(), "You already have a bid on this listing", nil)
	case errors.Is(err, auction.ErrSellerCannotBid):
		RespondErrorJSON(w, r, http.StatusForbidden, ErrSelfBidding.Error(), "You cannot bid on your own listing", nil)
	case errors.Is(err, service.ErrNotOwner):
		RespondErrorJSON(w, r, http.StatusForbidden, ErrNotListingOwner.Error(), "Listing belongs to another seller", nil)
	case errors.Is(err, auction.ErrStorage):
		slog.Error("[STORAGE] request failed", "error", err)
		RespondErrorJSON(w, r, http.StatusInternalServerError, ErrStorage.Error(), "Storage failure", nil)
	default:
		slog.Error("[HANDLER] unexpected error", "error", err)
		RespondErrorJSON(w, r, http.StatusInternalServerError, ErrInternalServer.Error(), "Internal server error", nil)
	}
}
