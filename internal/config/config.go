package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Redis    RedisConfig
	Dispatch DispatchConfig
	Email    EmailConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
	Migrate  bool
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%s", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// RedisConfig holds the connection settings of the event bus.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DispatchConfig holds the stream and consumer-group settings for dispatch events.
type DispatchConfig struct {
	Stream           string
	Group            string
	Consumer         string
	DeadLetterStream string
	MaxDeliveries    int
	ClaimIdle        time.Duration
	Block            time.Duration
}

// EmailConfig holds the email delivery provider settings.
type EmailConfig struct {
	Region          string
	SenderAddress   string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	// TestRecipient, when set, receives every outgoing message instead of the real recipients.
	TestRecipient string
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "hoadb")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("DB_MIGRATE", true)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")

	// Event bus and dispatcher defaults
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DISPATCH_STREAM", "hoa:sendmail")
	v.SetDefault("DISPATCH_GROUP", "sendmail")
	v.SetDefault("DISPATCH_DEAD_LETTER_STREAM", "hoa:sendmail:dead")
	v.SetDefault("DISPATCH_MAX_DELIVERIES", 5)
	v.SetDefault("DISPATCH_CLAIM_IDLE", "1m")
	v.SetDefault("DISPATCH_BLOCK", "5s")
	v.SetDefault("AWS_REGION", "us-east-1")

	// Bind environment variables
	v.AutomaticEnv()

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
			Migrate:  v.GetBool("DB_MIGRATE"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Dispatch: DispatchConfig{
			Stream:           v.GetString("DISPATCH_STREAM"),
			Group:            v.GetString("DISPATCH_GROUP"),
			Consumer:         v.GetString("DISPATCH_CONSUMER"),
			DeadLetterStream: v.GetString("DISPATCH_DEAD_LETTER_STREAM"),
			MaxDeliveries:    v.GetInt("DISPATCH_MAX_DELIVERIES"),
			ClaimIdle:        v.GetDuration("DISPATCH_CLAIM_IDLE"),
			Block:            v.GetDuration("DISPATCH_BLOCK"),
		},
		Email: EmailConfig{
			Region:          v.GetString("AWS_REGION"),
			SenderAddress:   v.GetString("SES_SENDER_ADDRESS"),
			Endpoint:        v.GetString("SES_ENDPOINT"),
			AccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
			TestRecipient:   strings.TrimSpace(v.GetString("EMAIL_TEST_RECIPIENT")),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	// Validate CORS config
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	// Validate event bus config
	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	// Validate dispatch config
	if c.Dispatch.Stream == "" {
		return fmt.Errorf("DISPATCH_STREAM is required")
	}
	if c.Dispatch.Group == "" {
		return fmt.Errorf("DISPATCH_GROUP is required")
	}
	if c.Dispatch.MaxDeliveries < 1 {
		return fmt.Errorf("DISPATCH_MAX_DELIVERIES must be at least 1")
	}
	if c.Dispatch.ClaimIdle <= 0 {
		return fmt.Errorf("DISPATCH_CLAIM_IDLE must be positive")
	}

	return nil
}

// ValidateEmail checks the settings only the dispatcher needs.
func (c *Config) ValidateEmail() error {
	if c.Email.Region == "" {
		return fmt.Errorf("AWS_REGION is required")
	}
	if c.Email.SenderAddress == "" {
		return fmt.Errorf("SES_SENDER_ADDRESS is required")
	}
	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
