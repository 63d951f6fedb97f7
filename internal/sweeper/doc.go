// Package sweeper watches for auctions whose bidding window has closed.
//
// Resolution stays caller-triggered: the sweeper never finishes an auction
// itself, it only announces expiry once per auction through the event
// dispatcher and the log.
package sweeper
