package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bidhaus-auction-service/internal/domain/auction"
	"bidhaus-auction-service/internal/domain/shared"

	"github.com/google/uuid"
)

const auctionColumns = `id, title, description, creator_id, starting_price, current_price, start_time, end_time, winner_id, is_active, closed_at, created_at, updated_at`

// AuctionRepository implements the auction repository interface
type AuctionRepository struct {
	conn *Connection
}

// NewAuctionRepository creates a new auction repository
func NewAuctionRepository(conn *Connection) *AuctionRepository {
	return &AuctionRepository{conn: conn}
}

// Create persists a new auction
func (r *AuctionRepository) Create(ctx context.Context, a *auction.Auction) error {
	query := `
		INSERT INTO auctions (` + auctionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		a.ID,
		a.Title,
		a.Description,
		a.CreatorID,
		a.StartingPrice,
		a.CurrentPrice,
		a.StartTime,
		a.EndTime,
		nullUUID(a.WinnerID),
		a.IsActive,
		nullTime(a.ClosedAt),
		a.CreatedAt,
		a.UpdatedAt,
	)

	if err != nil {
		return storeErr("create auction", err)
	}

	return nil
}

// GetByID retrieves an auction by ID
func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE id = $1
	`

	row := r.conn.GetDB().QueryRowContext(ctx, query, id)
	found, err := scanAuction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrAuctionNotFound
		}
		return nil, storeErr("get auction", err)
	}

	return found, nil
}

// List retrieves all auctions, newest first
func (r *AuctionRepository) List(ctx context.Context) ([]*auction.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		ORDER BY created_at DESC
	`
	return r.queryAuctions(ctx, "list auctions", query)
}

// ListByCreator retrieves the auctions created by one user
func (r *AuctionRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*auction.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE creator_id = $1
		ORDER BY created_at DESC
	`
	return r.queryAuctions(ctx, "list auctions by creator", query, creatorID)
}

// ListExpiredActive retrieves auctions still marked active whose end time
// is at or before the given instant
func (r *AuctionRepository) ListExpiredActive(ctx context.Context, now time.Time) ([]*auction.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE is_active = true AND end_time <= $1
		ORDER BY end_time ASC
	`
	return r.queryAuctions(ctx, "list expired auctions", query, now)
}

// Update writes an auction's listing details. Price and closed state have
// their own guarded writers and are never touched here.
func (r *AuctionRepository) Update(ctx context.Context, a *auction.Auction) error {
	query := `
		UPDATE auctions
		SET title = $2, description = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.conn.GetDB().ExecContext(ctx, query,
		a.ID,
		a.Title,
		a.Description,
		a.UpdatedAt,
	)
	if err != nil {
		return storeErr("update auction", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("update auction", err)
	}

	if rowsAffected == 0 {
		return shared.ErrAuctionNotFound
	}

	return nil
}

// Close writes the closed state of an auction. The update is guarded on
// is_active so two closers cannot both apply the transition; the loser
// gets ErrAuctionClosed.
func (r *AuctionRepository) Close(ctx context.Context, a *auction.Auction) error {
	query := `
		UPDATE auctions
		SET winner_id = $2, is_active = false, closed_at = $3, updated_at = $4
		WHERE id = $1 AND is_active = true
	`

	result, err := r.conn.GetDB().ExecContext(ctx, query,
		a.ID,
		nullUUID(a.WinnerID),
		nullTime(a.ClosedAt),
		a.UpdatedAt,
	)
	if err != nil {
		return storeErr("close auction", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("close auction", err)
	}

	if rowsAffected == 0 {
		return shared.ErrAuctionClosed
	}

	return nil
}

// Delete removes an auction and, via FK cascade, its bids
func (r *AuctionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM auctions WHERE id = $1`

	result, err := r.conn.GetDB().ExecContext(ctx, query, id)
	if err != nil {
		return storeErr("delete auction", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("delete auction", err)
	}

	if rowsAffected == 0 {
		return shared.ErrAuctionNotFound
	}

	return nil
}

func (r *AuctionRepository) queryAuctions(ctx context.Context, op, query string, args ...interface{}) ([]*auction.Auction, error) {
	rows, err := r.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	var auctions []*auction.Auction
	for rows.Next() {
		found, err := scanAuction(rows)
		if err != nil {
			return nil, storeErr(op, err)
		}
		auctions = append(auctions, found)
	}

	if err = rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}

	return auctions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuction(row rowScanner) (*auction.Auction, error) {
	var (
		found    auction.Auction
		winnerID uuid.NullUUID
		closedAt sql.NullTime
	)

	err := row.Scan(
		&found.ID,
		&found.Title,
		&found.Description,
		&found.CreatorID,
		&found.StartingPrice,
		&found.CurrentPrice,
		&found.StartTime,
		&found.EndTime,
		&winnerID,
		&found.IsActive,
		&closedAt,
		&found.CreatedAt,
		&found.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if winnerID.Valid {
		id := winnerID.UUID
		found.WinnerID = &id
	}
	if closedAt.Valid {
		t := closedAt.Time
		found.ClosedAt = &t
	}

	return &found, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// storeErr tags a persistence failure as retryable while keeping the cause
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, shared.ErrStoreUnavailable, err)
}
