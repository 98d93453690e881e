package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPPort        string
	GRPCPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string

	// "mongo" or "firestore"
	StoreBackend         string
	MongoURI             string
	MongoDatabase        string
	FirestoreProject     string
	FirestoreCredentials string

	// "sqlite" or "firestore"
	CatalogBackend  string
	SQLitePath      string
	CatalogSeed     bool
	CatalogCacheTTL time.Duration

	RedisAddr     string
	RedisPassword string
	CartTTL       time.Duration

	// comma-separated; empty disables event publishing
	KafkaBrokers string
	KafkaTopic   string

	// "inline" or "stripe"
	PaymentProvider     string
	PaymentPublicKey    string
	WidgetScriptURL     string
	StripeSecretKey     string
	StripeWebhookSecret string
	StripeSuccessURL    string
	StripeCancelURL     string

	Currency       string
	TaxRate        decimal.Decimal
	ChargeTax      bool
	PersistTimeout time.Duration
	PendingTTL     time.Duration
	SweepInterval  time.Duration

	SessionSecret  string
	SessionTTL     time.Duration
	SessionIdleTTL time.Duration
	CookieSecure   bool
}

// Load reads the environment, after applying a .env file when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		GRPCPort:        getEnv("GRPC_PORT", "50051"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),

		StoreBackend:         strings.ToLower(getEnv("STORE_BACKEND", "mongo")),
		MongoURI:             getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:        getEnv("MONGO_DATABASE", "storefront"),
		FirestoreProject:     getEnv("FIRESTORE_PROJECT_ID", ""),
		FirestoreCredentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		CatalogBackend:  strings.ToLower(getEnv("CATALOG_BACKEND", "sqlite")),
		SQLitePath:      getEnv("SQLITE_PATH", "storefront.db"),
		CatalogSeed:     getBool("CATALOG_SEED", true),
		CatalogCacheTTL: getDuration("CATALOG_CACHE_TTL", 10*time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CartTTL:       getDuration("CART_TTL", 24*time.Hour),

		KafkaBrokers: getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "storefront-checkout"),

		PaymentProvider:     strings.ToLower(getEnv("PAYMENT_PROVIDER", "inline")),
		PaymentPublicKey:    getEnv("PAYMENT_PUBLIC_KEY", ""),
		WidgetScriptURL:     getEnv("PAYMENT_WIDGET_SCRIPT_URL", "https://js.paystack.co/v1/inline.js"),
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeSuccessURL:    getEnv("STRIPE_SUCCESS_URL", "http://localhost:3000/checkout/success"),
		StripeCancelURL:     getEnv("STRIPE_CANCEL_URL", "http://localhost:3000/checkout/cancel"),

		Currency:       getEnv("CURRENCY", "GHS"),
		TaxRate:        getDecimal("TAX_RATE", decimal.RequireFromString("0.08")),
		ChargeTax:      getBool("CHARGE_TAX", false),
		PersistTimeout: getDuration("PERSIST_TIMEOUT", 10*time.Second),
		PendingTTL:     getDuration("PENDING_TTL", 30*time.Minute),
		SweepInterval:  getDuration("SWEEP_INTERVAL", time.Minute),

		SessionSecret:  getEnv("SESSION_SECRET", ""),
		SessionTTL:     getDuration("SESSION_TTL", 30*24*time.Hour),
		SessionIdleTTL: getDuration("SESSION_IDLE_TTL", 2*time.Hour),
		CookieSecure:   getBool("COOKIE_SECURE", false),
	}
	// an expired token can never come back for its session
	if cfg.SessionIdleTTL > cfg.SessionTTL {
		cfg.SessionIdleTTL = cfg.SessionTTL
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	switch c.StoreBackend {
	case "mongo":
	case "firestore":
		if c.FirestoreProject == "" {
			errs = append(errs, errors.New("FIRESTORE_PROJECT_ID is required for the firestore store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	switch c.CatalogBackend {
	case "sqlite":
	case "firestore":
		if c.FirestoreProject == "" {
			errs = append(errs, errors.New("FIRESTORE_PROJECT_ID is required for the firestore catalog"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CATALOG_BACKEND %q", c.CatalogBackend))
	}
	switch c.PaymentProvider {
	case "inline":
	case "stripe":
		if c.StripeSecretKey == "" || c.StripeWebhookSecret == "" {
			errs = append(errs, errors.New("STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET are required for the stripe provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PAYMENT_PROVIDER %q", c.PaymentProvider))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if d, err := decimal.NewFromString(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}
