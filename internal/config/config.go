package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port string
	Env  string

	Mongo      MongoConfig
	Redis      RedisConfig
	Catalog    CatalogConfig
	Checkout   CheckoutConfig
	Razorpay   RazorpayConfig
	S3         S3Config
	Moderation ModerationConfig
	SendGrid   SendGridConfig
	RateLimit  RateLimitConfig
}

// MongoConfig contains MongoDB connection parameters.
type MongoConfig struct {
	URI            string
	Database       string
	MigrationsPath string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// CatalogConfig tunes product listing and lookup.
type CatalogConfig struct {
	MaxLimit int
	CacheTTL time.Duration
}

// CheckoutConfig holds the pricing knobs used by the checkout calculator.
type CheckoutConfig struct {
	TaxRate            float64
	PartialCODFraction float64
	Currency           string
}

// RazorpayConfig contains gateway credentials for both modes. Mode selects
// which pair is active.
type RazorpayConfig struct {
	Mode          string
	BaseURL       string
	TestKeyID     string
	TestKeySecret string
	LiveKeyID     string
	LiveKeySecret string
}

// KeyID returns the key id for the active mode.
func (r RazorpayConfig) KeyID() string {
	if r.Mode == "test" {
		return r.TestKeyID
	}
	return r.LiveKeyID
}

// KeySecret returns the key secret for the active mode.
func (r RazorpayConfig) KeySecret() string {
	if r.Mode == "test" {
		return r.TestKeySecret
	}
	return r.LiveKeySecret
}

// S3Config contains AWS S3 configuration for product media.
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	PublicBaseURL   string
	AccessKeyID     string
	SecretAccessKey string
	MaxUploadBytes  int64
}

// Enabled reports whether uploads can be stored.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// ModerationConfig controls optional image moderation via AWS Rekognition.
type ModerationConfig struct {
	Enabled       bool
	Region        string
	MinConfidence float64
}

// SendGridConfig contains transactional mail settings.
type SendGridConfig struct {
	APIKey    string
	FromName  string
	FromEmail string
}

// RateLimitConfig bounds public write endpoints per source IP.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "5000")
	cfg.Env = getEnv("ENV", "development")

	// MongoDB
	cfg.Mongo = MongoConfig{
		URI:            getEnv("MONGODB_URI", ""),
		Database:       getEnv("MONGODB_DATABASE", "sashvara"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),
	}

	// Redis
	cfg.Redis = LoadRedis()

	// Catalog
	cfg.Catalog = CatalogConfig{
		MaxLimit: getEnvInt("CATALOG_MAX_LIMIT", 500),
	}

	// Checkout
	cfg.Checkout = CheckoutConfig{
		TaxRate:            getEnvFloat("CHECKOUT_TAX_RATE", 0.0476),
		PartialCODFraction: getEnvFloat("CHECKOUT_PARTIAL_COD_FRACTION", 0.25),
		Currency:           getEnv("CHECKOUT_CURRENCY", "INR"),
	}

	// Razorpay
	cfg.Razorpay = RazorpayConfig{
		Mode:          strings.ToLower(getEnv("RAZORPAY_MODE", "test")),
		BaseURL:       getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
		TestKeyID:     getEnv("RAZORPAY_TEST_KEY_ID", ""),
		TestKeySecret: getEnv("RAZORPAY_TEST_KEY_SECRET", ""),
		LiveKeyID:     getEnv("RAZORPAY_LIVE_KEY_ID", ""),
		LiveKeySecret: getEnv("RAZORPAY_LIVE_KEY_SECRET", ""),
	}

	// S3 media
	cfg.S3 = S3Config{
		Region:          getEnv("S3_REGION", "ap-south-1"),
		Bucket:          getEnv("S3_BUCKET", ""),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		PublicBaseURL:   strings.TrimRight(getEnv("S3_PUBLIC_BASE_URL", ""), "/"),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		MaxUploadBytes:  int64(getEnvInt("UPLOAD_MAX_BYTES", 5*1024*1024)),
	}
	if cfg.S3.PublicBaseURL == "" && cfg.S3.Bucket != "" {
		cfg.S3.PublicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3.Bucket, cfg.S3.Region)
	}

	// Image moderation
	cfg.Moderation = ModerationConfig{
		Enabled:       getEnvBool("MODERATION_ENABLED", false),
		Region:        getEnv("AWS_REKOGNITION_REGION", "ap-south-1"),
		MinConfidence: getEnvFloat("MODERATION_MIN_CONFIDENCE", 80),
	}

	// SendGrid
	cfg.SendGrid = SendGridConfig{
		APIKey:    getEnv("SENDGRID_API_KEY", ""),
		FromName:  getEnv("SENDGRID_FROM_NAME", "Sashvara"),
		FromEmail: getEnv("SENDGRID_FROM_EMAIL", "orders@sashvara.in"),
	}

	// Rate limit
	cfg.RateLimit.Requests = getEnvInt("RATE_LIMIT_REQUESTS", 10)

	var err error
	if cfg.Catalog.CacheTTL, err = parseDurationEnv("CATALOG_CACHE_TTL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid CATALOG_CACHE_TTL: %w", err)
	}
	if cfg.RateLimit.Window, err = parseDurationEnv("RATE_LIMIT_WINDOW", "1m"); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}

	if cfg.Mongo.URI == "" {
		return nil, errors.New("MONGODB_URI must be set")
	}
	if cfg.Catalog.MaxLimit < 1 {
		return nil, errors.New("CATALOG_MAX_LIMIT must be at least 1")
	}
	if cfg.Razorpay.Mode != "test" && cfg.Razorpay.Mode != "live" {
		return nil, fmt.Errorf("RAZORPAY_MODE must be 'test' or 'live', got %q", cfg.Razorpay.Mode)
	}
	if cfg.Razorpay.KeySecret() == "" {
		return nil, fmt.Errorf("razorpay key secret for %s mode must be set", cfg.Razorpay.Mode)
	}
	if cfg.Checkout.PartialCODFraction <= 0 || cfg.Checkout.PartialCODFraction > 1 {
		return nil, errors.New("CHECKOUT_PARTIAL_COD_FRACTION must be in (0, 1]")
	}

	return cfg, nil
}

// LoadMongo reads only the MongoDB settings. Tools that touch the database
// without serving traffic use it so they need no gateway credentials.
func LoadMongo() (*MongoConfig, error) {
	_ = godotenv.Load()
	cfg := &MongoConfig{
		URI:            getEnv("MONGODB_URI", ""),
		Database:       getEnv("MONGODB_DATABASE", "sashvara"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),
	}
	if cfg.URI == "" {
		return nil, errors.New("MONGODB_URI must be set")
	}
	return cfg, nil
}

// LoadRedis reads only the Redis settings.
func LoadRedis() RedisConfig {
	_ = godotenv.Load()
	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
