package db

import (
	"context"
	"database/sql"
	"errors"

	"bidhaus-auction-service/internal/domain/bid"
	"bidhaus-auction-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const bidColumns = `id, auction_id, bidder_id, amount, created_at`

// BidRepository implements the bid repository interface
type BidRepository struct {
	conn *Connection
}

// NewBidRepository creates a new bid repository
func NewBidRepository(conn *Connection) *BidRepository {
	return &BidRepository{conn: conn}
}

/*
Place atomically records an accepted bid and raises the auction's price:
 1. Re-read the auction row inside the transaction
 2. Re-validate: still active, price unchanged since the caller checked,
    bid amount still strictly above it
 3. Insert the bid and update the price, guarded on the expected price
 4. Fail without side effect if a concurrent transaction moved the price
*/
func (r *BidRepository) Place(ctx context.Context, newBid *bid.Bid, expectedCurrentPrice decimal.Decimal) error {
	return r.conn.ExecuteTransaction(ctx, func(tx *sql.Tx) error {
		auctionQuery := `
			SELECT current_price, is_active
			FROM auctions
			WHERE id = $1
		`

		var (
			storedPrice decimal.Decimal
			isActive    bool
		)
		err := tx.QueryRowContext(ctx, auctionQuery, newBid.AuctionID).Scan(&storedPrice, &isActive)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return shared.ErrAuctionNotFound
			}
			return storeErr("read auction for bid", err)
		}

		if !isActive {
			return shared.ErrAuctionClosed
		}

		if !storedPrice.Equal(expectedCurrentPrice) || !newBid.Amount.GreaterThan(storedPrice) {
			return shared.ErrBidTooLow
		}

		insertQuery := `
			INSERT INTO bids (` + bidColumns + `)
			VALUES ($1, $2, $3, $4, $5)
		`

		_, err = tx.ExecContext(ctx, insertQuery,
			newBid.ID,
			newBid.AuctionID,
			newBid.BidderID,
			newBid.Amount,
			newBid.CreatedAt,
		)
		if err != nil {
			return storeErr("insert bid", err)
		}

		// Guard on the expected price so a concurrent writer is detected
		// even without row locks.
		updateQuery := `
			UPDATE auctions
			SET current_price = $2, updated_at = $3
			WHERE id = $1 AND current_price = $4
		`

		result, err := tx.ExecContext(ctx, updateQuery,
			newBid.AuctionID,
			newBid.Amount,
			newBid.CreatedAt,
			expectedCurrentPrice,
		)
		if err != nil {
			return storeErr("update auction price", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return storeErr("update auction price", err)
		}

		if rowsAffected == 0 {
			return shared.ErrBidTooLow
		}

		return nil
	})
}

// ListByAuction retrieves all bids for an auction, leading bid first
func (r *BidRepository) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE auction_id = $1
		ORDER BY amount DESC, created_at ASC
	`
	return r.queryBids(ctx, "list bids", query, auctionID)
}

// ListByBidder retrieves all bids placed by one user, oldest first
func (r *BidRepository) ListByBidder(ctx context.Context, bidderID uuid.UUID) ([]*bid.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE bidder_id = $1
		ORDER BY created_at ASC
	`
	return r.queryBids(ctx, "list bids by bidder", query, bidderID)
}

// Highest retrieves the leading bid for an auction: highest amount,
// earliest created on ties
func (r *BidRepository) Highest(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE auction_id = $1
		ORDER BY amount DESC, created_at ASC
		LIMIT 1
	`

	row := r.conn.GetDB().QueryRowContext(ctx, query, auctionID)
	found, err := scanBid(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNoBidsFound
		}
		return nil, storeErr("get highest bid", err)
	}

	return found, nil
}

func (r *BidRepository) queryBids(ctx context.Context, op, query string, args ...interface{}) ([]*bid.Bid, error) {
	rows, err := r.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	var bids []*bid.Bid
	for rows.Next() {
		found, err := scanBid(rows)
		if err != nil {
			return nil, storeErr(op, err)
		}
		bids = append(bids, found)
	}

	if err = rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}

	return bids, nil
}

func scanBid(row rowScanner) (*bid.Bid, error) {
	var found bid.Bid
	err := row.Scan(
		&found.ID,
		&found.AuctionID,
		&found.BidderID,
		&found.Amount,
		&found.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &found, nil
}
