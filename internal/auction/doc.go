// Package auction implements the Auction Engine.
//
// Per-token state machine: Inactive -> Open -> Settled or Cancelled. Bids are
// accepted only inside the bidding window, each must strictly exceed the
// previous one (the first must strictly exceed the minimum price), and an
// outbid leader is refunded before the new bidder's funds are taken. After the
// window closes, resolution is caller-triggered: auctions with at least
// SettleBids bids settle to the leader, fewer roll back to the seller.
package auction
