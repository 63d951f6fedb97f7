// Package market implements the Marketplace Coordinator.
//
// The coordinator is the only entry point for marketplace operations. Every
// call is made on behalf of an explicit caller identity, validates its
// preconditions against the listing store and the asset registry, and either
// applies all of its state changes and transfers or none of them.
//
// Custody is two-tier: while a token is listed, the registry shows the
// marketplace account as custodian (escrow) and the coordinator's own owners
// map keeps tracking the business owner. Ownership checks always resolve
// against the pre-escrow owner recorded in the listing, never against current
// custody.
package market
