package auction

import "github.com/shopspring/decimal"

// BidStep is the minimum increment over the current price.
var BidStep = decimal.NewFromInt(1)

// CurrentPrice is the highest accepted bid amount, or the starting price
// if no bids exist. Always computed on read, never stored.
func CurrentPrice(l Listing, bids []Bid) decimal.Decimal {
	price := l.StartingPrice
	for _, b := range bids {
		if b.Amount.GreaterThan(price) {
			price = b.Amount
		}
	}
	return price
}

// MinimumBid is the smallest amount the next bid may carry.
func MinimumBid(current decimal.Decimal) decimal.Decimal {
	return current.Add(BidStep)
}

// WinningBid picks the bid with the highest amount, tie-broken by
// earliest placedAt. ok is false when no bids exist.
func WinningBid(bids []Bid) (winner Bid, ok bool) {
	for _, b := range bids {
		if !ok {
			winner, ok = b, true
			continue
		}
		if b.Amount.GreaterThan(winner.Amount) ||
			(b.Amount.Equal(winner.Amount) && b.PlacedAt.Before(winner.PlacedAt)) {
			winner = b
		}
	}
	return winner, ok
}
