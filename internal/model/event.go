package model

import "github.com/google/uuid"

// EventType classifies a marketplace event.
type EventType string

// Marketplace event types. Every transfer-like side effect produces an event
// so the journal and stream see the full money/asset flow.
const (
	EventItemCreated      EventType = "item_created"
	EventItemListed       EventType = "item_listed"
	EventListingCancelled EventType = "listing_cancelled"
	EventItemSold         EventType = "item_sold"
	EventAuctionStarted   EventType = "auction_started"
	EventBidPlaced        EventType = "bid_placed"
	EventBidRefunded      EventType = "bid_refunded"
	EventAuctionSettled   EventType = "auction_settled"
	EventAuctionCancelled EventType = "auction_cancelled"
	EventTokenTransfer    EventType = "token_transfer"
	EventPaymentTransfer  EventType = "payment_transfer"
	EventAuctionExpired   EventType = "auction_expired"
)

// Event is a single marketplace occurrence, published through the dispatcher
// to the journal writer and the websocket stream.
type Event struct {
	ID           uuid.UUID `json:"id"`                     // Unique event ID
	Type         EventType `json:"type"`                   // Event classification
	TokenID      TokenID   `json:"token_id"`               // Subject token
	Actor        uuid.UUID `json:"actor"`                  // Initiating account
	Counterparty uuid.UUID `json:"counterparty,omitzero"`  // Receiving account, if any
	Amount       int64     `json:"amount"`                 // Payment amount, 0 when not a payment
	At           int64     `json:"at"`                     // Event time (µs since epoch)
}
