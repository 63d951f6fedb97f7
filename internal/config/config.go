package config

import "time"

// MarketConfig is the root configuration for a marketd instance.
type MarketConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Market   MarketSettings `yaml:"market"`
	Database DatabaseConfig `yaml:"database"`
	Journal  JournalConfig  `yaml:"journal"`
	Stream   StreamConfig   `yaml:"stream"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
	Accounts []AccountSeed  `yaml:"accounts"`
}

// InstanceConfig identifies this marketplace instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// MarketSettings holds the auction policy.
type MarketSettings struct {
	AuctionDuration time.Duration `yaml:"auction_duration"` // Bidding window
	SettleBids      int           `yaml:"settle_bids"`      // Minimum bids for settlement
}

// DatabaseConfig holds the optional event journal database. The journal is
// disabled when postgres.host is empty.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// JournalConfig holds event journal writer settings.
type JournalConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// StreamConfig holds the websocket event stream / query API server settings.
type StreamConfig struct {
	Addr       string `yaml:"addr"`
	SendBuffer int    `yaml:"send_buffer"`
}

// SweeperConfig holds auction expiry sweeper settings.
type SweeperConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// AccountSeed funds a named account at startup, for demos and local runs.
type AccountSeed struct {
	Name    string `yaml:"name"`
	Balance int64  `yaml:"balance"`
}
