package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
// Database settings are validated separately because only the gateway
// needs them.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return errors.New("symbols must not be empty")
	}
	seen := make(map[string]bool, len(c.Symbols))
	for i, s := range c.Symbols {
		if s.Symbol == "" {
			return fmt.Errorf("symbols[%d].symbol is required", i)
		}
		if seen[s.Symbol] {
			return fmt.Errorf("symbols[%d]: duplicate symbol %q", i, s.Symbol)
		}
		seen[s.Symbol] = true
		if s.StartPrice <= 0 {
			return fmt.Errorf("symbols[%d].start_price must be > 0, got %v", i, s.StartPrice)
		}
		if s.Volatility <= 0 {
			return fmt.Errorf("symbols[%d].volatility must be > 0, got %v", i, s.Volatility)
		}
	}

	if c.Generator.TradeProbability == nil {
		return errors.New("generator.trade_probability is required")
	}
	if p := *c.Generator.TradeProbability; p < 0 || p > 1 {
		return fmt.Errorf("generator.trade_probability must be in [0, 1], got %v", p)
	}
	if c.Generator.MaxTradeVolume < 1 {
		return errors.New("generator.max_trade_volume must be >= 1")
	}
	if c.Generator.MinCycleDelay <= 0 {
		return errors.New("generator.min_cycle_delay must be > 0")
	}
	if c.Generator.MaxCycleDelay < c.Generator.MinCycleDelay {
		return fmt.Errorf("generator.max_cycle_delay (%v) cannot be less than min_cycle_delay (%v)",
			c.Generator.MaxCycleDelay, c.Generator.MinCycleDelay)
	}

	if c.Bus.Addr == "" {
		return errors.New("bus.addr is required")
	}

	if c.Gateway.Port < 1 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway.port must be between 1 and 65535, got %d", c.Gateway.Port)
	}
	if c.Gateway.SubscribeAttempts < 1 {
		return errors.New("gateway.subscribe_attempts must be >= 1")
	}

	return nil
}

// Validate checks the database connection settings.
func (db *DBConfig) Validate() error {
	if db.Host == "" {
		return errors.New("database.host is required")
	}
	if db.Name == "" {
		return errors.New("database.name is required")
	}
	if db.User == "" {
		return errors.New("database.user is required")
	}
	if db.Password == "" {
		return errors.New("database.password is required")
	}
	if db.MaxConns < 1 {
		return errors.New("database.max_conns must be >= 1")
	}
	if db.MinConns < 0 {
		return errors.New("database.min_conns must be >= 0")
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("database.min_conns (%d) cannot exceed max_conns (%d)", db.MinConns, db.MaxConns)
	}
	return nil
}
