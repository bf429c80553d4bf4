package db

import (
	"bidhaus-auction-service/internal/ports/outbound"
)

// RepositoryFactory creates the database-backed repositories
type RepositoryFactory struct {
	conn *Connection
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(conn *Connection) *RepositoryFactory {
	return &RepositoryFactory{conn: conn}
}

// GetAuctionRepository returns the auction repository
func (f *RepositoryFactory) GetAuctionRepository() outbound.AuctionRepository {
	return NewAuctionRepository(f.conn)
}

// GetBidRepository returns the bid repository
func (f *RepositoryFactory) GetBidRepository() outbound.BidRepository {
	return NewBidRepository(f.conn)
}
