package service

import (
	"context"
	"strings"
	"time"

	"github.com/bidhouse/bidhouse/internal/auction"
	"github.com/bidhouse/bidhouse/internal/repository"
	"github.com/bidhouse/bidhouse/pkg/clock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	maxTitleLen       = 140
	maxDescriptionLen = 4000
)

type CreateListingInput struct {
	SellerID      uuid.UUID
	Title         string
	Description   string
	Category      auction.Category
	StartingPrice decimal.Decimal
	StartTime     time.Time
	EndTime       time.Time
	Images        []auction.Image
	IsFeatured    bool
}

// UpdateListingInput carries the editable fields; nil means keep.
// Starting price is fixed at creation and never editable.
type UpdateListingInput struct {
	Title       *string
	Description *string
	Category    *auction.Category
	StartTime   *time.Time
	EndTime     *time.Time
	Images      []auction.Image
}

type ListingServicer interface {
	Create(ctx context.Context, in CreateListingInput) (auction.Listing, error)
	Get(ctx context.Context, id uuid.UUID) (auction.Listing, error)
	Update(ctx context.Context, id, sellerID uuid.UUID, in UpdateListingInput) (auction.Listing, error)
	BySeller(ctx context.Context, sellerID uuid.UUID, limit, offset uint) ([]auction.Listing, error)
}

type ListingService struct {
	store repository.ListingStore
	clk   clock.Clock
}

func NewListingService(store repository.ListingStore, clk clock.Clock) (*ListingService, error) {
	return &ListingService{store: store, clk: clk}, nil
}

func (s *ListingService) Create(ctx context.Context, in CreateListingInput) (auction.Listing, error) {
	if err := validateListingFields(in.Title, in.Description, in.Category, in.StartTime, in.EndTime, in.Images); err != nil {
		return auction.Listing{}, err
	}
	if !in.StartingPrice.IsPositive() {
		return auction.Listing{}, &auction.ValidationError{Field: "starting_price", Issue: "must be greater than zero"}
	}

	now := s.clk.Now()
	l := auction.Listing{
		ID:            uuid.New(),
		SellerID:      in.SellerID,
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Category:      in.Category,
		StartingPrice: in.StartingPrice,
		StartTime:     in.StartTime.UTC(),
		EndTime:       in.EndTime.UTC(),
		Status:        auction.StatusPending,
		Images:        in.Images,
		IsFeatured:    in.IsFeatured,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return s.store.Create(ctx, l)
}

func (s *ListingService) Get(ctx context.Context, id uuid.UUID) (auction.Listing, error) {
	return s.store.Get(ctx, id)
}

func (s *ListingService) Update(ctx context.Context, id, sellerID uuid.UUID, in UpdateListingInput) (auction.Listing, error) {
	l, err := s.store.Get(ctx, id)
	if err != nil {
		return auction.Listing{}, err
	}
	if l.SellerID != sellerID {
		return auction.Listing{}, ErrNotOwner
	}
	if l.Status != auction.StatusPending {
		return auction.Listing{}, auction.ErrInvalidState
	}

	if in.Title != nil {
		l.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		l.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		l.Category = *in.Category
	}
	if in.StartTime != nil {
		l.StartTime = in.StartTime.UTC()
	}
	if in.EndTime != nil {
		l.EndTime = in.EndTime.UTC()
	}
	if in.Images != nil {
		l.Images = in.Images
	}

	if err := validateListingFields(l.Title, l.Description, l.Category, l.StartTime, l.EndTime, l.Images); err != nil {
		return auction.Listing{}, err
	}

	l.UpdatedAt = s.clk.Now()
	return s.store.Update(ctx, l)
}

func (s *ListingService) BySeller(ctx context.Context, sellerID uuid.UUID, limit, offset uint) ([]auction.Listing, error) {
	if limit == 0 {
		limit = 10
	}
	return s.store.ListBySeller(ctx, sellerID, limit, offset)
}

func validateListingFields(title, description string, category auction.Category, startTime, endTime time.Time, images []auction.Image) error {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	switch {
	case title == "":
		return &auction.ValidationError{Field: "title", Issue: "is required"}
	case len(title) > maxTitleLen:
		return &auction.ValidationError{Field: "title", Issue: "exceeds maximum length"}
	case description == "":
		return &auction.ValidationError{Field: "description", Issue: "is required"}
	case len(description) > maxDescriptionLen:
		return &auction.ValidationError{Field: "description", Issue: "exceeds maximum length"}
	case !category.Valid():
		return &auction.ValidationError{Field: "category", Issue: "is not a known category"}
	case !endTime.After(startTime):
		return &auction.ValidationError{Field: "end_time", Issue: "must be after start_time"}
	}

	primaries := 0
	for _, img := range images {
		if strings.TrimSpace(img.URL) == "" {
			return &auction.ValidationError{Field: "images", Issue: "image url is required"}
		}
		if img.IsPrimary {
			primaries++
		}
	}
	if primaries > 1 {
		return &auction.ValidationError{Field: "images", Issue: "at most one image may be primary"}
	}
	return nil
}
