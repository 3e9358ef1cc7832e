package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	S3        S3Config
	Mail      MailConfig
	Store     StoreConfig
	Cart      CartConfig
	Profile   ProfileConfig
	RateLimit RateLimitConfig
	Admin     AdminSeedConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
	LogLevel    string
	LogFormat   string
	// PublicURL is used when building links sent by email.
	PublicURL string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type MailConfig struct {
	SendGridAPIKey string
	FromAddress    string
	FromName       string
}

// StoreConfig mirrors the storefront's static settings.
type StoreConfig struct {
	Name          string
	Currency      string
	MinOrderValue float64
	ShippingCost  float64
}

type CartConfig struct {
	CookieName       string
	PersistDebounce  time.Duration
	IdleTTL          time.Duration
	EvictionSchedule string
}

type ProfileConfig struct {
	StaleTime time.Duration
}

// AdminSeedConfig creates the first staff account on an empty database.
type AdminSeedConfig struct {
	Email    string
	Password string
	Name     string
}

type RateLimitConfig struct {
	AuthRequestsPerSecond float64
	AuthBurst             int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", ""),
			LogFormat:   getEnv("LOG_FORMAT", "console"),
			PublicURL:   getEnv("PUBLIC_URL", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "zorvex"),
			Password: getEnv("DB_PASSWORD", "zorvex"),
			DBName:   getEnv("DB_NAME", "zorvex"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "1h"), time.Hour),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "zorvex-uploads"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Mail: MailConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			FromAddress:    getEnv("MAIL_FROM_ADDRESS", "no-reply@zorvex.com"),
			FromName:       getEnv("MAIL_FROM_NAME", "Zorvex"),
		},
		Store: StoreConfig{
			Name:          getEnv("STORE_NAME", "Zorvex"),
			Currency:      getEnv("STORE_CURRENCY", "USD"),
			MinOrderValue: parseFloat(getEnv("STORE_MIN_ORDER_VALUE", "200"), 200),
			ShippingCost:  parseFloat(getEnv("STORE_SHIPPING_COST", "0"), 0),
		},
		Cart: CartConfig{
			CookieName:       getEnv("CART_COOKIE_NAME", "cart_id"),
			PersistDebounce:  parseDuration(getEnv("CART_PERSIST_DEBOUNCE", "500ms"), 500*time.Millisecond),
			IdleTTL:          parseDuration(getEnv("CART_IDLE_TTL", "30m"), 30*time.Minute),
			EvictionSchedule: getEnv("CART_EVICTION_SCHEDULE", "@every 1m"),
		},
		Profile: ProfileConfig{
			StaleTime: parseDuration(getEnv("PROFILE_STALE_TIME", "5m"), 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			AuthRequestsPerSecond: parseFloat(getEnv("AUTH_RATE_LIMIT_RPS", "5"), 5),
			AuthBurst:             parseInt(getEnv("AUTH_RATE_LIMIT_BURST", "10"), 10),
		},
		Admin: AdminSeedConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Name:     getEnv("ADMIN_NAME", "Store Admin"),
		},
	}

	if config.Server.Environment == "production" && config.JWT.Secret == "your-secret-key" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	return config, nil
}

// IsProduction reports whether cookies should be marked Secure.
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Enabled reports whether a Redis host was configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return v
}

func parseFloat(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Printf("Invalid number %s, using default %v", s, fallback)
		return fallback
	}
	return v
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
