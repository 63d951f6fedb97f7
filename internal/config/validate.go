package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *MarketConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Market.AuctionDuration <= 0 {
		return errors.New("market.auction_duration must be positive")
	}
	if c.Market.SettleBids < 1 {
		return errors.New("market.settle_bids must be >= 1")
	}

	// Journal database is optional; validate only when configured.
	if c.Database.Postgres.Host != "" {
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
	}

	if c.Journal.BatchSize < 1 {
		return errors.New("journal.batch_size must be >= 1")
	}
	if c.Journal.BufferSize < 1 {
		return errors.New("journal.buffer_size must be >= 1")
	}

	if c.Stream.SendBuffer < 1 {
		return errors.New("stream.send_buffer must be >= 1")
	}
	if c.Sweeper.Interval <= 0 {
		return errors.New("sweeper.interval must be positive")
	}

	for i, acct := range c.Accounts {
		if acct.Name == "" {
			return fmt.Errorf("accounts[%d].name is required", i)
		}
		if acct.Balance < 0 {
			return fmt.Errorf("accounts[%d].balance must be >= 0", i)
		}
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
