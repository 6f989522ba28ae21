package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ImagePayload struct {
	URL       string `json:"url" validate:"required,url"`
	IsPrimary bool   `json:"is_primary"`
}

type CreateListingRequest struct {
	Title         string          `json:"title" validate:"required,max=140"`
	Description   string          `json:"description" validate:"required,max=4000"`
	Category      string          `json:"category" validate:"required"`
	StartingPrice decimal.Decimal `json:"starting_price" validate:"required"`
	StartTime     time.Time       `json:"start_time" validate:"required"`
	EndTime       time.Time       `json:"end_time" validate:"required"`
	Images        []ImagePayload  `json:"images" validate:"dive"`
	IsFeatured    bool            `json:"is_featured"`
}

// UpdateListingRequest carries only the fields being changed; absent
// fields keep their stored values. Starting price is never editable.
type UpdateListingRequest struct {
	Title       *string        `json:"title" validate:"omitempty,max=140"`
	Description *string        `json:"description" validate:"omitempty,max=4000"`
	Category    *string        `json:"category"`
	StartTime   *time.Time     `json:"start_time"`
	EndTime     *time.Time     `json:"end_time"`
	Images      []ImagePayload `json:"images" validate:"omitempty,dive"`
}

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}
