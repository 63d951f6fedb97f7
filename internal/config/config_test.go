package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const validYAML = `
instance:
  id: market-01
market:
  auction_duration: 48h
  settle_bids: 2
database:
  postgres:
    host: localhost
    name: market
    user: market
    password: secret
journal:
  batch_size: 50
  flush_interval: 500ms
  buffer_size: 256
stream:
  addr: ":9090"
  send_buffer: 32
sweeper:
  interval: 30s
accounts:
  - name: alice
    balance: 100
`

func TestLoad(t *testing.T) {
	path := writeTempFile(t, validYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "market-01" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "market-01")
	}
	if cfg.Market.AuctionDuration != 48*time.Hour {
		t.Errorf("AuctionDuration = %v, want 48h", cfg.Market.AuctionDuration)
	}
	if cfg.Market.SettleBids != 2 {
		t.Errorf("SettleBids = %d, want 2", cfg.Market.SettleBids)
	}
	if cfg.Database.Postgres.Host != "localhost" {
		t.Errorf("Postgres.Host = %q, want %q", cfg.Database.Postgres.Host, "localhost")
	}
	if cfg.Journal.FlushInterval != 500*time.Millisecond {
		t.Errorf("FlushInterval = %v, want 500ms", cfg.Journal.FlushInterval)
	}
	if cfg.Stream.Addr != ":9090" {
		t.Errorf("Stream.Addr = %q, want %q", cfg.Stream.Addr, ":9090")
	}
	if len(cfg.Accounts) != 1 || cfg.Accounts[0].Name != "alice" || cfg.Accounts[0].Balance != 100 {
		t.Errorf("Accounts = %+v, want alice with balance 100", cfg.Accounts)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempFile(t, "instance: [unclosed")

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("MARKET_DB_PASSWORD", "s3cret")

	path := writeTempFile(t, `
instance:
  id: market-01
database:
  postgres:
    host: localhost
    name: market
    user: market
    password: ${MARKET_DB_PASSWORD}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Postgres.Password != "s3cret" {
		t.Errorf("Password = %q, want %q", cfg.Database.Postgres.Password, "s3cret")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, `
instance:
  id: market-01
`)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Market.AuctionDuration != DefaultAuctionDuration {
		t.Errorf("AuctionDuration = %v, want %v", cfg.Market.AuctionDuration, DefaultAuctionDuration)
	}
	if cfg.Market.SettleBids != DefaultSettleBids {
		t.Errorf("SettleBids = %d, want %d", cfg.Market.SettleBids, DefaultSettleBids)
	}
	if cfg.Journal.BatchSize != DefaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", cfg.Journal.BatchSize, DefaultBatchSize)
	}
	if cfg.Journal.BufferSize != DefaultBufferSize {
		t.Errorf("BufferSize = %d, want %d", cfg.Journal.BufferSize, DefaultBufferSize)
	}
	if cfg.Stream.Addr != DefaultStreamAddr {
		t.Errorf("Stream.Addr = %q, want %q", cfg.Stream.Addr, DefaultStreamAddr)
	}
	if cfg.Sweeper.Interval != DefaultSweepInterval {
		t.Errorf("Sweeper.Interval = %v, want %v", cfg.Sweeper.Interval, DefaultSweepInterval)
	}
}

func TestLoadWithDefaults_DBDefaults(t *testing.T) {
	path := writeTempFile(t, `
instance:
  id: market-01
database:
  postgres:
    host: localhost
    name: market
    user: market
    password: secret
`)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	db := cfg.Database.Postgres
	if db.Port != DefaultDBPort {
		t.Errorf("Port = %d, want %d", db.Port, DefaultDBPort)
	}
	if db.SSLMode != DefaultDBSSLMode {
		t.Errorf("SSLMode = %q, want %q", db.SSLMode, DefaultDBSSLMode)
	}
	if db.MaxConns != DefaultMaxConns {
		t.Errorf("MaxConns = %d, want %d", db.MaxConns, DefaultMaxConns)
	}
	if db.MinConns != DefaultMinConns {
		t.Errorf("MinConns = %d, want %d", db.MinConns, DefaultMinConns)
	}
}

func TestLoadAndValidate(t *testing.T) {
	path := writeTempFile(t, validYAML)

	if _, err := LoadAndValidate(path); err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	base := func() *MarketConfig {
		cfg := &MarketConfig{Instance: InstanceConfig{ID: "market-01"}}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*MarketConfig)
		wantSub string
	}{
		{
			name:    "missing instance id",
			mutate:  func(c *MarketConfig) { c.Instance.ID = "" },
			wantSub: "instance.id",
		},
		{
			name:    "non-positive auction duration",
			mutate:  func(c *MarketConfig) { c.Market.AuctionDuration = -time.Hour },
			wantSub: "market.auction_duration",
		},
		{
			name:    "settle bids below one",
			mutate:  func(c *MarketConfig) { c.Market.SettleBids = 0 },
			wantSub: "market.settle_bids",
		},
		{
			name: "db missing password",
			mutate: func(c *MarketConfig) {
				c.Database.Postgres.Host = "localhost"
				c.Database.Postgres.Name = "market"
				c.Database.Postgres.User = "market"
			},
			wantSub: "database.postgres.password",
		},
		{
			name: "db min conns above max",
			mutate: func(c *MarketConfig) {
				c.Database.Postgres = DBConfig{
					Host: "localhost", Name: "market", User: "market",
					Password: "secret", MaxConns: 2, MinConns: 5,
				}
			},
			wantSub: "min_conns",
		},
		{
			name:    "zero journal batch size",
			mutate:  func(c *MarketConfig) { c.Journal.BatchSize = 0 },
			wantSub: "journal.batch_size",
		},
		{
			name:    "zero sweeper interval",
			mutate:  func(c *MarketConfig) { c.Sweeper.Interval = 0 },
			wantSub: "sweeper.interval",
		},
		{
			name: "account without name",
			mutate: func(c *MarketConfig) {
				c.Accounts = []AccountSeed{{Balance: 10}}
			},
			wantSub: "accounts[0].name",
		},
		{
			name: "negative account balance",
			mutate: func(c *MarketConfig) {
				c.Accounts = []AccountSeed{{Name: "alice", Balance: -1}}
			},
			wantSub: "accounts[0].balance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestValidate_DBOptionalWhenHostEmpty(t *testing.T) {
	cfg := &MarketConfig{Instance: InstanceConfig{ID: "market-01"}}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed without database: %v", err)
	}
}
