package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultTradeProbability  float64 = 0.7
	DefaultMaxTradeVolume    = 10000
	DefaultMinCycleDelay     = 100 * time.Millisecond
	DefaultMaxCycleDelay     = 1 * time.Second
	DefaultReconnectBaseWait = 1 * time.Second
	DefaultReconnectMaxWait  = 60 * time.Second
	DefaultBusAddr           = "localhost:6379"
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 10
	DefaultMinConns          = 2
	DefaultGatewayPort       = 8000
	DefaultWriteTimeout      = 10 * time.Second
	DefaultSubscribeAttempts = 3
	DefaultSubscribeBaseWait = 250 * time.Millisecond
)

// DefaultSymbols is the built-in symbol universe used when the config
// names none.
func DefaultSymbols() []SymbolConfig {
	return []SymbolConfig{
		{Symbol: "AAPL", StartPrice: 175.0, Volatility: 0.002},
		{Symbol: "GOOGL", StartPrice: 140.0, Volatility: 0.003},
		{Symbol: "MSFT", StartPrice: 380.0, Volatility: 0.002},
		{Symbol: "AMZN", StartPrice: 170.0, Volatility: 0.003},
		{Symbol: "TSLA", StartPrice: 240.0, Volatility: 0.005},
	}
}

func (c *Config) applyDefaults() {
	if len(c.Symbols) == 0 {
		c.Symbols = DefaultSymbols()
	}

	// Generator defaults
	if c.Generator.TradeProbability == nil {
		p := DefaultTradeProbability
		c.Generator.TradeProbability = &p
	}
	if c.Generator.MaxTradeVolume == 0 {
		c.Generator.MaxTradeVolume = DefaultMaxTradeVolume
	}
	if c.Generator.MinCycleDelay == 0 {
		c.Generator.MinCycleDelay = DefaultMinCycleDelay
	}
	if c.Generator.MaxCycleDelay == 0 {
		c.Generator.MaxCycleDelay = DefaultMaxCycleDelay
	}
	if c.Generator.ReconnectBaseWait == 0 {
		c.Generator.ReconnectBaseWait = DefaultReconnectBaseWait
	}
	if c.Generator.ReconnectMaxWait == 0 {
		c.Generator.ReconnectMaxWait = DefaultReconnectMaxWait
	}

	// Bus defaults
	if c.Bus.Addr == "" {
		c.Bus.Addr = DefaultBusAddr
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Gateway defaults
	if c.Gateway.Port == 0 {
		c.Gateway.Port = DefaultGatewayPort
	}
	if c.Gateway.WriteTimeout == 0 {
		c.Gateway.WriteTimeout = DefaultWriteTimeout
	}
	if c.Gateway.SubscribeAttempts == 0 {
		c.Gateway.SubscribeAttempts = DefaultSubscribeAttempts
	}
	if c.Gateway.SubscribeBaseWait == 0 {
		c.Gateway.SubscribeBaseWait = DefaultSubscribeBaseWait
	}
}
