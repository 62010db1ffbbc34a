package config

import "time"

// Config is the root configuration shared by the feed generator and
// the gateway.
type Config struct {
	Symbols   []SymbolConfig  `yaml:"symbols"`
	Generator GeneratorConfig `yaml:"generator"`
	Bus       BusConfig       `yaml:"bus"`
	Database  DBConfig        `yaml:"database"`
	Gateway   GatewayConfig   `yaml:"gateway"`
}

// SymbolConfig seeds one symbol's price process.
type SymbolConfig struct {
	Symbol     string  `yaml:"symbol"`
	StartPrice float64 `yaml:"start_price"`
	Volatility float64 `yaml:"volatility"`
}

// GeneratorConfig holds event generation settings. TradeProbability is
// a pointer so an explicit 0 (quotes only) survives default application.
type GeneratorConfig struct {
	Seed              int64         `yaml:"seed"`
	TradeProbability  *float64      `yaml:"trade_probability"`
	MaxTradeVolume    int           `yaml:"max_trade_volume"`
	MinCycleDelay     time.Duration `yaml:"min_cycle_delay"`
	MaxCycleDelay     time.Duration `yaml:"max_cycle_delay"`
	ReconnectBaseWait time.Duration `yaml:"reconnect_base_wait"`
	ReconnectMaxWait  time.Duration `yaml:"reconnect_max_wait"`
}

// BusConfig holds the Redis connection for the event bus.
type BusConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
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

// GatewayConfig holds the distribution server settings.
type GatewayConfig struct {
	Port              int           `yaml:"port"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	SubscribeAttempts int           `yaml:"subscribe_attempts"`
	SubscribeBaseWait time.Duration `yaml:"subscribe_base_wait"`
}
