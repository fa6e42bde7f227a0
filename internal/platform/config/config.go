package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	MigrationsPath string

	JWTSecret string
	JWTIssuer string

	RateLimit   string   // ulule limiter format, e.g. "300-M"
	CORSOrigins []string // empty allows every origin

	AMQPURL      string // empty logs notifications instead of publishing them
	AMQPExchange string

	SettingsFile        string
	LocalCurrency       string
	ForeignCurrencies   []string
	SettlementTolerance decimal.Decimal
	NotifyTimeout       time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_ISSUER", "cashdesk-backoffice")
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("CORS_ORIGINS", "")
	viper.SetDefault("AMQP_URL", "")
	viper.SetDefault("AMQP_EXCHANGE", "backoffice.events")
	viper.SetDefault("SETTINGS_FILE", "settings.toml")
	viper.SetDefault("LOCAL_CURRENCY", "XOF")
	viper.SetDefault("FOREIGN_CURRENCIES", "EUR,USD")
	viper.SetDefault("SETTLEMENT_TOLERANCE", "0.01")
	viper.SetDefault("NOTIFY_TIMEOUT", "5s")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080" // Default port
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.MigrationsPath = viper.GetString("MIGRATIONS_PATH")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.CORSOrigins = splitList(viper.GetString("CORS_ORIGINS"))

	cfg.AMQPURL = viper.GetString("AMQP_URL")
	cfg.AMQPExchange = viper.GetString("AMQP_EXCHANGE")
	if cfg.AMQPURL == "" {
		log.Println("Warning: AMQP_URL not set. Notifications will only be logged.")
	}

	cfg.SettingsFile = viper.GetString("SETTINGS_FILE")
	cfg.LocalCurrency = strings.ToUpper(strings.TrimSpace(viper.GetString("LOCAL_CURRENCY")))
	for _, c := range splitList(viper.GetString("FOREIGN_CURRENCIES")) {
		cfg.ForeignCurrencies = append(cfg.ForeignCurrencies, strings.ToUpper(c))
	}

	toleranceStr := viper.GetString("SETTLEMENT_TOLERANCE")
	tolerance, err := decimal.NewFromString(toleranceStr)
	if err != nil || tolerance.IsNegative() {
		return nil, fmt.Errorf("invalid SETTLEMENT_TOLERANCE %q", toleranceStr)
	}
	cfg.SettlementTolerance = tolerance

	notifyTimeoutStr := viper.GetString("NOTIFY_TIMEOUT")
	notifyTimeout, err := time.ParseDuration(notifyTimeoutStr)
	if err != nil || notifyTimeout <= 0 {
		notifyTimeout = 5 * time.Second
		log.Printf("Warning: Invalid value for NOTIFY_TIMEOUT ('%s'). Defaulting to %s.\n", notifyTimeoutStr, notifyTimeout.String())
	}
	cfg.NotifyTimeout = notifyTimeout

	return cfg, nil
}

// Currencies lists the local currency followed by the foreign ones.
func (c *Config) Currencies() []string {
	out := []string{c.LocalCurrency}
	for _, f := range c.ForeignCurrencies {
		if f != c.LocalCurrency {
			out = append(out, f)
		}
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
