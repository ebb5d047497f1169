package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/irfndi/pricecast-go/internal/forecast"
	"github.com/irfndi/pricecast-go/internal/recommendation"
)

type Config struct {
	Environment  string             `mapstructure:"environment"`
	LogLevel     string             `mapstructure:"log_level"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Forecast     ForecastConfig     `mapstructure:"forecast"`
	PriceUpdater PriceUpdaterConfig `mapstructure:"price_updater"`
	Telegram     TelegramConfig     `mapstructure:"telegram"`
	Security     SecurityConfig     `mapstructure:"security"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	DatabaseURL     string `mapstructure:"database_url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime string `mapstructure:"conn_max_idle_time"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ForecastConfig drives the online forecast endpoints.
type ForecastConfig struct {
	DefaultModel        string  `mapstructure:"default_model"`
	DefaultScenario     string  `mapstructure:"default_scenario"`
	DefaultDays         int     `mapstructure:"default_days"`
	MaxDays             int     `mapstructure:"max_days"`
	PlaceholderMAPE     float64 `mapstructure:"placeholder_mape"`
	MinHistoryPoints    int     `mapstructure:"min_history_points"`
	HistoryLookbackDays int     `mapstructure:"history_lookback_days"`
	CacheTTL            string  `mapstructure:"cache_ttl"`
}

// CacheTTLDuration parses CacheTTL, falling back to ten minutes.
func (f ForecastConfig) CacheTTLDuration() time.Duration {
	d, err := time.ParseDuration(f.CacheTTL)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// MarketplaceConfig describes how to scrape one marketplace product page.
type MarketplaceConfig struct {
	URLTemplate string `mapstructure:"url_template"`
	Selector    string `mapstructure:"selector"`
}

type PriceUpdaterConfig struct {
	Enabled                 bool                         `mapstructure:"enabled"`
	Schedule                string                       `mapstructure:"schedule"`
	Marketplace             string                       `mapstructure:"marketplace"`
	RateLimitPerSecond      float64                      `mapstructure:"rate_limit_per_second"`
	RequestTimeout          string                       `mapstructure:"request_timeout"`
	BreakerFailureThreshold int                          `mapstructure:"breaker_failure_threshold"`
	BreakerCooldown         string                       `mapstructure:"breaker_cooldown"`
	Marketplaces            map[string]MarketplaceConfig `mapstructure:"marketplaces"`
}

// RequestTimeoutDuration parses RequestTimeout, falling back to fifteen seconds.
func (p PriceUpdaterConfig) RequestTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(p.RequestTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// BreakerCooldownDuration parses BreakerCooldown, falling back to five minutes.
func (p PriceUpdaterConfig) BreakerCooldownDuration() time.Duration {
	d, err := time.ParseDuration(p.BreakerCooldown)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

type SecurityConfig struct {
	JWTSecret   string   `mapstructure:"jwt_secret" json:"-" yaml:"-"`
	JWTExpiry   string   `mapstructure:"jwt_expiry"`
	BcryptCost  int      `mapstructure:"bcrypt_cost"`
	AdminEmails []string `mapstructure:"admin_emails"`
}

// JWTExpiryDuration parses JWTExpiry, falling back to 24 hours.
func (s SecurityConfig) JWTExpiryDuration() time.Duration {
	d, err := time.ParseDuration(s.JWTExpiry)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Exporter       string `mapstructure:"exporter"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
}

func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Bind specific environment variables
	if err := viper.BindEnv("security.jwt_secret", "JWT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind JWT_SECRET environment variable: %w", err)
	}
	if err := viper.BindEnv("database.database_url", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind DATABASE_URL environment variable: %w", err)
	}

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Normalize environment to lowercase for consistent comparison
	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks cross-field constraints that defaults cannot guarantee.
func (c *Config) Validate() error {
	if c.Environment != "development" && c.Security.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required in non-development environments")
	}

	if c.Security.JWTExpiry != "" {
		if _, err := time.ParseDuration(c.Security.JWTExpiry); err != nil {
			return fmt.Errorf("invalid JWT expiry duration: %w", err)
		}
	}

	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, c.Security.BcryptCost)
	}

	if !forecast.IsKnownModel(c.Forecast.DefaultModel) {
		return fmt.Errorf("unknown forecast.default_model %q", c.Forecast.DefaultModel)
	}
	if _, err := recommendation.ParseScenario(c.Forecast.DefaultScenario); err != nil {
		return fmt.Errorf("forecast.default_scenario: %w", err)
	}
	if c.Forecast.PlaceholderMAPE < 0 {
		return fmt.Errorf("forecast.placeholder_mape must be non-negative, got %v", c.Forecast.PlaceholderMAPE)
	}
	if c.Forecast.DefaultDays <= 0 || c.Forecast.MaxDays < c.Forecast.DefaultDays {
		return fmt.Errorf("forecast days out of range: default=%d max=%d", c.Forecast.DefaultDays, c.Forecast.MaxDays)
	}

	if _, err := cron.ParseStandard(c.PriceUpdater.Schedule); err != nil {
		return fmt.Errorf("invalid price_updater.schedule: %w", err)
	}

	return nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Set database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "pricecast")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "300s")
	viper.SetDefault("database.conn_max_idle_time", "60s")

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Forecast
	viper.SetDefault("forecast.default_model", forecast.ModelLinear)
	viper.SetDefault("forecast.default_scenario", string(recommendation.ScenarioOptimist))
	viper.SetDefault("forecast.default_days", 7)
	viper.SetDefault("forecast.max_days", 90)
	viper.SetDefault("forecast.placeholder_mape", 10.0)
	viper.SetDefault("forecast.min_history_points", 7)
	viper.SetDefault("forecast.history_lookback_days", 90)
	viper.SetDefault("forecast.cache_ttl", "10m")

	// Price updater
	viper.SetDefault("price_updater.enabled", false)
	viper.SetDefault("price_updater.schedule", "0 0 * * *")
	viper.SetDefault("price_updater.marketplace", "wildberries")
	viper.SetDefault("price_updater.rate_limit_per_second", 2.0)
	viper.SetDefault("price_updater.request_timeout", "15s")
	viper.SetDefault("price_updater.breaker_failure_threshold", 5)
	viper.SetDefault("price_updater.breaker_cooldown", "5m")
	viper.SetDefault("price_updater.marketplaces", map[string]any{
		"wildberries": map[string]any{
			"url_template": "https://www.wildberries.ru/catalog/%s/detail.aspx",
			"selector":     ".price-block__final-price",
		},
		"ozon": map[string]any{
			"url_template": "https://www.ozon.ru/product/%s/",
			"selector":     "[data-widget='webPrice'] span",
		},
	})

	// Telegram
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", 0)

	// Security
	viper.SetDefault("security.jwt_secret", "")
	viper.SetDefault("security.jwt_expiry", "24h")
	viper.SetDefault("security.bcrypt_cost", 12)
	viper.SetDefault("security.admin_emails", []string{})

	// Telemetry
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.exporter", "stdout")
	viper.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	viper.SetDefault("telemetry.service_name", "pricecast")
	viper.SetDefault("telemetry.service_version", "1.0.0")
}
