package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAuctionDuration = 72 * time.Hour
	DefaultSettleBids      = 3
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultBatchSize       = 100
	DefaultFlushInterval   = 1 * time.Second
	DefaultBufferSize      = 1024
	DefaultStreamAddr      = ":8080"
	DefaultSendBuffer      = 64
	DefaultSweepInterval   = 1 * time.Minute
)

func (c *MarketConfig) applyDefaults() {
	// Market policy defaults
	if c.Market.AuctionDuration == 0 {
		c.Market.AuctionDuration = DefaultAuctionDuration
	}
	if c.Market.SettleBids == 0 {
		c.Market.SettleBids = DefaultSettleBids
	}

	// Database defaults (only meaningful when a host is set)
	applyDBDefaults(&c.Database.Postgres)

	// Journal defaults
	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = DefaultBatchSize
	}
	if c.Journal.FlushInterval == 0 {
		c.Journal.FlushInterval = DefaultFlushInterval
	}
	if c.Journal.BufferSize == 0 {
		c.Journal.BufferSize = DefaultBufferSize
	}

	// Stream defaults
	if c.Stream.Addr == "" {
		c.Stream.Addr = DefaultStreamAddr
	}
	if c.Stream.SendBuffer == 0 {
		c.Stream.SendBuffer = DefaultSendBuffer
	}

	// Sweeper defaults
	if c.Sweeper.Interval == 0 {
		c.Sweeper.Interval = DefaultSweepInterval
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
