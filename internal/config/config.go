package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Services    ServicesConfig
	Session     SessionConfig
	Order       OrderConfig
	Proxy       ProxyConfig
	Database    DatabaseConfig
	AuditFlow   bool
	LogLevel    string
}

// ServicesConfig holds the backend origins the storefront talks to
type ServicesConfig struct {
	AuthURL     string
	ShoppingURL string
	CheckoutURL string
	PaymentURL  string
	KitchenURL  string
	Timeout     time.Duration
}

type SessionConfig struct {
	CookieName string
}

type OrderConfig struct {
	Currency          string
	DeliverySurcharge decimal.Decimal
	ConfirmationDelay time.Duration
}

type ProxyConfig struct {
	Port          string
	StorefrontURL string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "3001")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.AutomaticEnv()

	// .env is optional, env vars are enough
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	timeout, err := time.ParseDuration(getEnvOrViper("BACKEND_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BACKEND_TIMEOUT: %w", err)
	}
	delay, err := time.ParseDuration(getEnvOrViper("CONFIRMATION_DELAY", "2500ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid CONFIRMATION_DELAY: %w", err)
	}
	surcharge, err := decimal.NewFromString(getEnvOrViper("DELIVERY_SURCHARGE", "2.50"))
	if err != nil {
		return nil, fmt.Errorf("invalid DELIVERY_SURCHARGE: %w", err)
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "3001"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Services: ServicesConfig{
			AuthURL:     getEnvOrViper("AUTH_SERVICE_URL", "http://localhost:8081"),
			ShoppingURL: getEnvOrViper("SHOPPING_SERVICE_URL", "http://localhost:8080"),
			CheckoutURL: getEnvOrViper("CHECKOUT_SERVICE_URL", "http://localhost:8082"),
			PaymentURL:  getEnvOrViper("PAYMENT_SERVICE_URL", "http://localhost:8083"),
			KitchenURL:  getEnvOrViper("KITCHEN_SERVICE_URL", "http://localhost:8084"),
			Timeout:     timeout,
		},
		Session: SessionConfig{
			CookieName: getEnvOrViper("SESSION_COOKIE", "jwt_token"),
		},
		Order: OrderConfig{
			Currency:          strings.ToUpper(getEnvOrViper("CURRENCY", "EUR")),
			DeliverySurcharge: surcharge,
			ConfirmationDelay: delay,
		},
		Proxy: ProxyConfig{
			Port:          getEnvOrViper("PROXY_PORT", "3000"),
			StorefrontURL: getEnvOrViper("STOREFRONT_URL", "http://localhost:3001"),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "storefront"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		AuditFlow: getEnvOrViper("FLOW_AUDIT_ENABLED", "false") == "true",
		LogLevel:  getEnvOrViper("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail on the first request
func (c *Config) Validate() error {
	origins := map[string]string{
		"AUTH_SERVICE_URL":     c.Services.AuthURL,
		"SHOPPING_SERVICE_URL": c.Services.ShoppingURL,
		"CHECKOUT_SERVICE_URL": c.Services.CheckoutURL,
		"PAYMENT_SERVICE_URL":  c.Services.PaymentURL,
		"KITCHEN_SERVICE_URL":  c.Services.KitchenURL,
	}
	for key, raw := range origins {
		if err := validateOrigin(raw); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE is required")
	}
	if c.Order.Currency == "" {
		return fmt.Errorf("CURRENCY is required")
	}
	if c.Order.DeliverySurcharge.IsNegative() {
		return fmt.Errorf("DELIVERY_SURCHARGE must not be negative")
	}
	if c.Services.Timeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}
	return nil
}

func validateOrigin(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

// DSN builds the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
