package auction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is the closed set of listing categories.
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryBooks       Category = "books"
	CategoryVehicles    Category = "vehicles"
	CategoryClothing    Category = "clothing"
	CategoryHome        Category = "home"
	CategoryOther       Category = "other"
)

var categories = map[Category]bool{
	CategoryElectronics: true,
	CategoryBooks:       true,
	CategoryVehicles:    true,
	CategoryClothing:    true,
	CategoryHome:        true,
	CategoryOther:       true,
}

func (c Category) Valid() bool {
	return categories[c]
}

// Image is listing photo metadata. Byte storage lives elsewhere.
type Image struct {
	URL       string `json:"url"`
	IsPrimary bool   `json:"is_primary"`
}

// Listing is an item submitted for auction.
type Listing struct {
	ID            uuid.UUID       `json:"id"`
	SellerID      uuid.UUID       `json:"seller_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Category      Category        `json:"category"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	Status        Status          `json:"status"`
	Images        []Image         `json:"images"`
	IsFeatured    bool            `json:"is_featured"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Bid is a monetary offer against a listing. Bids are immutable and
// never deleted; the ledger is append-only.
type Bid struct {
	ID        uuid.UUID       `json:"id"`
	ListingID uuid.UUID       `json:"listing_id"`
	BidderID  uuid.UUID       `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	PlacedAt  time.Time       `json:"placed_at"`
}
