package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bidhouse/bidhouse/internal/auction"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateListingValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	now := env.clk.Now()

	base := CreateListingInput{
		SellerID:      uuid.New(),
		Title:         "Vintage Camera",
		Description:   "A beautiful vintage camera",
		Category:      auction.CategoryElectronics,
		StartingPrice: decimal.NewFromInt(100),
		StartTime:     now,
		EndTime:       now.Add(time.Hour),
	}

	tests := []struct {
		name   string
		mutate func(in *CreateListingInput)
		field  string
	}{
		{"empty title", func(in *CreateListingInput) { in.Title = "  " }, "title"},
		{"oversize title", func(in *CreateListingInput) { in.Title = strings.Repeat("x", 141) }, "title"},
		{"empty description", func(in *CreateListingInput) { in.Description = "" }, "description"},
		{"unknown category", func(in *CreateListingInput) { in.Category = "art" }, "category"},
		{"zero price", func(in *CreateListingInput) { in.StartingPrice = decimal.Zero }, "starting_price"},
		{"negative price", func(in *CreateListingInput) { in.StartingPrice = decimal.NewFromInt(-5) }, "starting_price"},
		{"end before start", func(in *CreateListingInput) { in.EndTime = in.StartTime.Add(-time.Minute) }, "end_time"},
		{"end equals start", func(in *CreateListingInput) { in.EndTime = in.StartTime }, "end_time"},
		{"two primary images", func(in *CreateListingInput) {
			in.Images = []auction.Image{
				{URL: "https://img.test/1.jpg", IsPrimary: true},
				{URL: "https://img.test/2.jpg", IsPrimary: true},
			}
		}, "images"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := env.svcs.ListingService.Create(ctx, in)

			var validationErr *auction.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}

	t.Run("valid input starts pending", func(t *testing.T) {
		listing, err := env.svcs.ListingService.Create(ctx, base)
		require.NoError(t, err)
		assert.Equal(t, auction.StatusPending, listing.Status)
		assert.NotEqual(t, uuid.Nil, listing.ID)
	})
}

func TestUpdateListing(t *testing.T) {
	ctx := context.Background()

	t.Run("owner edits pending fields", func(t *testing.T) {
		env := newTestEnv(t)
		seller := uuid.New()
		listing := env.createListing(t, seller, 100)

		title := "Vintage Camera 1950s"
		category := auction.CategoryOther
		updated, err := env.svcs.ListingService.Update(ctx, listing.ID, seller, UpdateListingInput{
			Title:    &title,
			Category: &category,
		})
		require.NoError(t, err)
		assert.Equal(t, title, updated.Title)
		assert.Equal(t, category, updated.Category)
		// untouched fields survive
		assert.Equal(t, listing.Description, updated.Description)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		listing := env.createListing(t, uuid.New(), 100)

		title := "hijack"
		_, err := env.svcs.ListingService.Update(ctx, listing.ID, uuid.New(), UpdateListingInput{Title: &title})
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("active listing is immutable", func(t *testing.T) {
		env := newTestEnv(t)
		seller := uuid.New()
		listing := env.activeListing(t, seller, 100)

		title := "too late"
		_, err := env.svcs.ListingService.Update(ctx, listing.ID, seller, UpdateListingInput{Title: &title})
		assert.ErrorIs(t, err, auction.ErrInvalidState)
	})

	t.Run("merged fields are re-validated", func(t *testing.T) {
		env := newTestEnv(t)
		seller := uuid.New()
		listing := env.createListing(t, seller, 100)

		bad := listing.StartTime.Add(-time.Minute)
		_, err := env.svcs.ListingService.Update(ctx, listing.ID, seller, UpdateListingInput{EndTime: &bad})
		assert.ErrorIs(t, err, auction.ErrValidation)
	})
}
