// Package model defines shared data types used across the marketplace engine.
//
// Conventions:
//   - Amounts: int64 payment-token units (whole units, no fractions)
//   - Timestamps: int64 microseconds since Unix epoch
//   - IDs: uint64 monotonic counter for tokens, uuid.UUID for accounts and events
package model
