// Package listing implements the Listing Store.
//
// The store is pure storage: one record per token while it is on sale or on
// auction, no business validation. The invariant "at most one active listing
// per token" is enforced by the coordinator.
package listing
