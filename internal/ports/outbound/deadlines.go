package outbound

import (
	"time"

	"github.com/google/uuid"
)

// DeadlineIndex records auction end times so a scheduler can close
// auctions promptly when they fall due. The index is an optimization
// only; losing an entry is harmless because the periodic sweep remains
// the authority on expiry.
type DeadlineIndex interface {
	Schedule(auctionID uuid.UUID, endTime time.Time) error
}
