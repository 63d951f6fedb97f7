// Package httpapi serves the read-only marketplace query surface.
//
// Routes: /health, /items, /items/{id}, /auctions. Mutating operations go
// through the coordinator API directly; this surface only exposes snapshots.
package httpapi
