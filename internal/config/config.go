// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Pool      PoolConfig      `mapstructure:"pool"`
	Assets    []AssetConfig   `mapstructure:"assets"`
	Discord   DiscordConfig   `mapstructure:"discord"`
	Chart     ChartConfig     `mapstructure:"chart"`
	Web       WebConfig       `mapstructure:"web"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// DatabaseConfig holds the embedded store configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// PoolConfig holds the pricing and accounting parameters.
type PoolConfig struct {
	SupplyFeeRate    float64       `mapstructure:"supply_fee_rate"`
	SampleInterval   time.Duration `mapstructure:"sample_interval"`
	ResampleInterval time.Duration `mapstructure:"resample_interval"`
	SupplierWindow   time.Duration `mapstructure:"supplier_window"`
}

// SupplyFeeRateDecimal returns the supply fee rate as decimal.Decimal.
func (c *PoolConfig) SupplyFeeRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.SupplyFeeRate)
}

// AssetConfig describes one of the two pool assets.
type AssetConfig struct {
	Name            string  `mapstructure:"name"`
	Emoji           string  `mapstructure:"emoji"`
	EmojiName       string  `mapstructure:"emoji_name"`
	BotUser         string  `mapstructure:"bot_user"`
	FeeVariant      string  `mapstructure:"fee_variant"` // "percent_ceil" or "none"
	FeeRate         float64 `mapstructure:"fee_rate"`
	TransferPattern string  `mapstructure:"transfer_pattern"`
	TransferCommand string  `mapstructure:"transfer_command"` // outbound send template: asset, amount, recipient
}

// FeeRateDecimal returns the transaction fee rate as decimal.Decimal.
func (c *AssetConfig) FeeRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.FeeRate)
}

// DiscordConfig holds chat gateway configuration.
type DiscordConfig struct {
	Token     string `mapstructure:"token"`
	ChannelID string `mapstructure:"channel_id"`
}

// ChartConfig holds chart rendering configuration.
type ChartConfig struct {
	Endpoint          string `mapstructure:"endpoint"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// WebConfig holds the live price ticker endpoint configuration.
type WebConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("SWAP")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "SWAP_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "SWAP_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "SWAP_LOG_LEVEL", "LOG_LEVEL")

	// Database
	v.BindEnv("database.path", "SWAP_DB_PATH", "DB_PATH")

	// Pool
	v.BindEnv("pool.supply_fee_rate", "SWAP_SUPPLY_FEE_RATE")
	v.BindEnv("pool.sample_interval", "SWAP_SAMPLE_INTERVAL")
	v.BindEnv("pool.supplier_window", "SWAP_SUPPLIER_WINDOW")

	// Discord
	v.BindEnv("discord.token", "SWAP_DISCORD_TOKEN", "DISCORD_TOKEN")
	v.BindEnv("discord.channel_id", "SWAP_DISCORD_CHANNEL_ID", "DISCORD_CHANNEL_ID")

	// Chart
	v.BindEnv("chart.endpoint", "SWAP_CHART_ENDPOINT")

	// Telemetry
	v.BindEnv("telemetry.enabled", "SWAP_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "SWAP_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "swappool")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Database defaults
	v.SetDefault("database.path", "db/swappool.db")

	// Pool defaults
	v.SetDefault("pool.supply_fee_rate", 0.05)
	v.SetDefault("pool.sample_interval", "1h")
	v.SetDefault("pool.resample_interval", "1h")
	v.SetDefault("pool.supplier_window", "30s")

	// Asset defaults: the two coins the pool trades
	v.SetDefault("assets", []map[string]any{
		{
			"name":             "SBCoin",
			"emoji":            ":sbcoin:",
			"emoji_name":       "sbcoin",
			"bot_user":         "SBCoin#6868",
			"fee_variant":      "percent_ceil",
			"fee_rate":         0.02,
			"transfer_pattern": `sent (\d+) SBCoin to <@botid>`,
			"transfer_command": "/send amount:%d user:%s",
		},
		{
			"name":             "DABCoin",
			"emoji":            ":dabcoin:",
			"emoji_name":       "dabcoin",
			"bot_user":         "DABCoin#1056",
			"fee_variant":      "none",
			"fee_rate":         0,
			"transfer_pattern": `transferred (\d+) [Dd][aA][bB][cC]oins? to <@botid>`,
			"transfer_command": "/transfer amount:%d user:%s",
		},
	})

	// Chart defaults
	v.SetDefault("chart.endpoint", "https://quickchart.io")
	v.SetDefault("chart.requests_per_minute", 20)

	// Web defaults
	v.SetDefault("web.enabled", false)
	v.SetDefault("web.port", 8082)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "swappool")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Assets) != 2 {
		return fmt.Errorf("exactly two assets are required, got %d", len(c.Assets))
	}
	if c.Assets[0].Name == c.Assets[1].Name {
		return fmt.Errorf("asset names must be distinct: %s", c.Assets[0].Name)
	}
	for _, a := range c.Assets {
		if a.Name == "" {
			return fmt.Errorf("asset name is required")
		}
		switch a.FeeVariant {
		case "percent_ceil", "none":
		default:
			return fmt.Errorf("asset %s: unknown fee_variant %q", a.Name, a.FeeVariant)
		}
		if a.FeeRate < 0 || a.FeeRate >= 1 {
			return fmt.Errorf("asset %s: fee_rate must be in [0,1)", a.Name)
		}
		if _, err := regexp.Compile(a.TransferPattern); err != nil {
			return fmt.Errorf("asset %s: invalid transfer_pattern: %w", a.Name, err)
		}
	}
	if c.Pool.SupplyFeeRate < 0 || c.Pool.SupplyFeeRate >= 1 {
		return fmt.Errorf("pool.supply_fee_rate must be in [0,1)")
	}
	if c.Pool.SampleInterval <= 0 {
		return fmt.Errorf("pool.sample_interval must be positive")
	}
	if c.Pool.SupplierWindow <= 0 {
		return fmt.Errorf("pool.supplier_window must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}
