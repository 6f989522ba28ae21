package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bidhouse/bidhouse/internal/auction"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PGRepo is the Postgres-backed ListingStore + BidLedger.
// Status transitions compare-and-set on the stored status so a concurrent
// sweep and admin action cannot both apply; bid appends re-check status
// and current price inside a short transaction holding the listing row
// lock, so bids on one listing stay strictly ordered even across
// processes.
type PGRepo struct {
	pool *pgxpool.Pool
}

func NewPGRepo(pool *pgxpool.Pool) *PGRepo {
	return &PGRepo{pool: pool}
}

const listingColumns = `
	id, seller_id, title, description, category, starting_price,
	start_time, end_time, status, images, is_featured, created_at, updated_at
`

func scanListing(row pgx.Row) (auction.Listing, error) {
	var (
		l         auction.Listing
		price     string
		imagesRaw []byte
	)
	err := row.Scan(
		&l.ID, &l.SellerID, &l.Title, &l.Description, &l.Category, &price,
		&l.StartTime, &l.EndTime, &l.Status, &imagesRaw, &l.IsFeatured,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return auction.Listing{}, err
	}
	if l.StartingPrice, err = decimal.NewFromString(price); err != nil {
		return auction.Listing{}, fmt.Errorf("parse starting_price: %w", err)
	}
	if len(imagesRaw) > 0 {
		if err := json.Unmarshal(imagesRaw, &l.Images); err != nil {
			return auction.Listing{}, fmt.Errorf("parse images: %w", err)
		}
	}
	return l, nil
}

func (r *PGRepo) Create(ctx context.Context, l auction.Listing) (auction.Listing, error) {
	images, err := json.Marshal(l.Images)
	if err != nil {
		return auction.Listing{}, fmt.Errorf("marshal images: %w", err)
	}

	const q = `
		INSERT INTO listings (` + listingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = r.pool.Exec(ctx, q,
		l.ID, l.SellerID, l.Title, l.Description, l.Category, l.StartingPrice.String(),
		l.StartTime, l.EndTime, l.Status, images, l.IsFeatured, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return auction.Listing{}, fmt.Errorf("insert listing %s: %w", l.ID, storageErr(err))
	}
	return l, nil
}

func (r *PGRepo) Get(ctx context.Context, id uuid.UUID) (auction.Listing, error) {
	const q = `SELECT ` + listingColumns + ` FROM listings WHERE id = $1 LIMIT 1;`

	l, err := scanListing(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return auction.Listing{}, fmt.Errorf("get listing %s: %w", id, auction.ErrNotFound)
	}
	if err != nil {
		return auction.Listing{}, fmt.Errorf("get listing %s: %w", id, storageErr(err))
	}
	return l, nil
}

func (r *PGRepo) Update(ctx context.Context, l auction.Listing) (auction.Listing, error) {
	images, err := json.Marshal(l.Images)
	if err != nil {
		return auction.Listing{}, fmt.Errorf("marshal images: %w", err)
	}

	const q = `
		UPDATE listings
		SET title = $2, description = $3, category = $4, start_time = $5,
		    end_time = $6, images = $7, updated_at = $8
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + listingColumns + `;
	`
	updated, err := scanListing(r.pool.QueryRow(ctx, q,
		l.ID, l.Title, l.Description, l.Category, l.StartTime, l.EndTime, images, l.UpdatedAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		// listing missing or no longer pending
		if _, getErr := r.Get(ctx, l.ID); getErr != nil {
			return auction.Listing{}, getErr
		}
		return auction.Listing{}, fmt.Errorf("update listing %s: %w", l.ID, auction.ErrInvalidState)
	}
	if err != nil {
		return auction.Listing{}, fmt.Errorf("update listing %s: %w", l.ID, storageErr(err))
	}
	return updated, nil
}

func (r *PGRepo) Transition(ctx context.Context, id uuid.UUID, from, to auction.Status) (auction.Listing, error) {
	if !auction.CanTransition(from, to) {
		return auction.Listing{}, fmt.Errorf("transition listing %s from %s to %s: %w", id, from, to, auction.ErrInvalidTransition)
	}

	const q = `
		UPDATE listings
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING ` + listingColumns + `;
	`
	l, err := scanListing(r.pool.QueryRow(ctx, q, id, from, to, time.Now().UTC()))
	if errors.Is(err, pgx.ErrNoRows) {
		// CAS lost: either missing or already moved on
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return auction.Listing{}, getErr
		}
		return auction.Listing{}, fmt.Errorf("transition listing %s from %s to %s: %w", id, from, to, auction.ErrInvalidTransition)
	}
	if err != nil {
		return auction.Listing{}, fmt.Errorf("transition listing %s: %w", id, storageErr(err))
	}
	return l, nil
}

func (r *PGRepo) ListByStatus(ctx context.Context, status auction.Status) ([]auction.Listing, error) {
	const q = `SELECT ` + listingColumns + ` FROM listings WHERE status = $1 ORDER BY created_at;`

	rows, err := r.pool.Query(ctx, q, status)
	if err != nil {
		return nil, fmt.Errorf("list listings by status %s: %w", status, storageErr(err))
	}
	defer rows.Close()
	return collectListings(rows)
}

func (r *PGRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset uint) ([]auction.Listing, error) {
	const q = `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE seller_id = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.pool.Query(ctx, q, sellerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list listings by seller %s: %w", sellerID, storageErr(err))
	}
	defer rows.Close()
	return collectListings(rows)
}

func collectListings(rows pgx.Rows) ([]auction.Listing, error) {
	var out []auction.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

func (r *PGRepo) Append(ctx context.Context, b auction.Bid) (auction.Bid, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return auction.Bid{}, fmt.Errorf("append bid: %w", storageErr(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// row lock serializes appends on the same listing across processes;
	// status and price are re-verified under it so another replica's
	// in-process checks cannot go stale between read and insert
	var (
		status        auction.Status
		startingPrice string
	)
	err = tx.QueryRow(ctx,
		`SELECT status, starting_price::text FROM listings WHERE id = $1 FOR UPDATE;`,
		b.ListingID,
	).Scan(&status, &startingPrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return auction.Bid{}, fmt.Errorf("append bid for listing %s: %w", b.ListingID, auction.ErrNotFound)
	}
	if err != nil {
		return auction.Bid{}, fmt.Errorf("append bid for listing %s: %w", b.ListingID, storageErr(err))
	}
	if status != auction.StatusActive {
		return auction.Bid{}, fmt.Errorf("append bid for listing %s: %w", b.ListingID, auction.ErrAuctionNotActive)
	}

	current, err := decimal.NewFromString(startingPrice)
	if err != nil {
		return auction.Bid{}, fmt.Errorf("parse starting_price: %w", err)
	}
	var highest *string
	if err := tx.QueryRow(ctx,
		`SELECT MAX(amount)::text FROM bids WHERE listing_id = $1;`,
		b.ListingID,
	).Scan(&highest); err != nil {
		return auction.Bid{}, fmt.Errorf("append bid for listing %s: %w", b.ListingID, storageErr(err))
	}
	if highest != nil {
		h, err := decimal.NewFromString(*highest)
		if err != nil {
			return auction.Bid{}, fmt.Errorf("parse bid amount: %w", err)
		}
		if h.GreaterThan(current) {
			current = h
		}
	}
	if !b.Amount.GreaterThan(current) {
		return auction.Bid{}, &auction.BidTooLowError{Minimum: auction.MinimumBid(current)}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bids (id, listing_id, bidder_id, amount, placed_at)
		VALUES ($1, $2, $3, $4, $5);`,
		b.ID, b.ListingID, b.BidderID, b.Amount.String(), b.PlacedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique violation on (listing_id, bidder_id)
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return auction.Bid{}, fmt.Errorf("append bid for listing %s: %w", b.ListingID, auction.ErrDuplicateBid)
		}
		return auction.Bid{}, fmt.Errorf("append bid for listing %s: %w", b.ListingID, storageErr(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return auction.Bid{}, fmt.Errorf("append bid for listing %s: %w", b.ListingID, storageErr(err))
	}
	return b, nil
}

func (r *PGRepo) BidsFor(ctx context.Context, listingID uuid.UUID) ([]auction.Bid, error) {
	const q = `
		SELECT id, listing_id, bidder_id, amount, placed_at
		FROM bids
		WHERE listing_id = $1
		ORDER BY amount DESC, placed_at ASC;
	`
	rows, err := r.pool.Query(ctx, q, listingID)
	if err != nil {
		return nil, fmt.Errorf("list bids for listing %s: %w", listingID, storageErr(err))
	}
	defer rows.Close()

	var out []auction.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

func (r *PGRepo) HighestBid(ctx context.Context, listingID uuid.UUID) (*auction.Bid, error) {
	const q = `
		SELECT id, listing_id, bidder_id, amount, placed_at
		FROM bids
		WHERE listing_id = $1
		ORDER BY amount DESC, placed_at ASC
		LIMIT 1;
	`
	b, err := scanBid(r.pool.QueryRow(ctx, q, listingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("highest bid for listing %s: %w", listingID, storageErr(err))
	}
	return &b, nil
}

func (r *PGRepo) BidByBidder(ctx context.Context, listingID, bidderID uuid.UUID) (*auction.Bid, error) {
	const q = `
		SELECT id, listing_id, bidder_id, amount, placed_at
		FROM bids
		WHERE listing_id = $1 AND bidder_id = $2
		LIMIT 1;
	`
	b, err := scanBid(r.pool.QueryRow(ctx, q, listingID, bidderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bid by %s on listing %s: %w", bidderID, listingID, storageErr(err))
	}
	return &b, nil
}

func (r *PGRepo) ListingsBidBy(ctx context.Context, bidderID uuid.UUID) ([]uuid.UUID, error) {
	const q = `
		SELECT DISTINCT listing_id
		FROM bids
		WHERE bidder_id = $1
		ORDER BY listing_id;
	`
	rows, err := r.pool.Query(ctx, q, bidderID)
	if err != nil {
		return nil, fmt.Errorf("listings bid by %s: %w", bidderID, storageErr(err))
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return ids, nil
}

func scanBid(row pgx.Row) (auction.Bid, error) {
	var (
		b      auction.Bid
		amount string
	)
	if err := row.Scan(&b.ID, &b.ListingID, &b.BidderID, &amount, &b.PlacedAt); err != nil {
		return auction.Bid{}, err
	}
	var err error
	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return auction.Bid{}, fmt.Errorf("parse bid amount: %w", err)
	}
	return b, nil
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", auction.ErrStorage, err)
}
