package model

import "github.com/google/uuid"

// TokenID identifies a unique asset. IDs are assigned by the asset registry
// as a monotonic counter starting at 0.
type TokenID uint64

// ListingState describes how a token is currently offered on the marketplace.
type ListingState int

const (
	StateNone    ListingState = iota // not listed
	StateSale                        // fixed-price sale
	StateAuction                     // timed auction
)

// String returns the state name used in logs and API responses.
func (s ListingState) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateSale:
		return "sale"
	case StateAuction:
		return "auction"
	default:
		return "unknown"
	}
}

// Listing is the per-token record of an active offer. A listing exists only
// while State != StateNone; cancel, buy and finish destroy it.
type Listing struct {
	TokenID  TokenID      // Token on offer
	State    ListingState // Sale or Auction
	Seller   uuid.UUID    // Pre-escrow owner; ownership checks resolve against this
	Price    int64        // Sale asking price (zero is a valid free transfer)
	MinPrice int64        // Auction minimum; first bid must strictly exceed it
}

// Auction is the bid state for a token with State == StateAuction.
//
// Invariant: BidCount > 0 exactly when HighestBidder != uuid.Nil.
// StartTime is immutable once the auction opens.
type Auction struct {
	TokenID       TokenID   // Token on auction
	Seller        uuid.UUID // Pre-escrow owner
	MinPrice      int64     // First-bid threshold (exclusive)
	StartTime     int64     // Auction open time (µs since epoch)
	HighestBidder uuid.UUID // uuid.Nil until the first bid
	HighestBid    int64     // 0 until the first bid, then strictly increasing
	BidCount      int       // Accepted bids so far
}
