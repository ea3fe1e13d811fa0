package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Cache    CacheConfig
	Media    MediaConfig
	SMTP     SMTPConfig
	Points   PointsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL string
}

// CacheConfig holds per-endpoint-class TTLs for the cache-aside layer
type CacheConfig struct {
	ListTTL    time.Duration // paginated review/product lists
	SummaryTTL time.Duration // rating summaries, like/follower counts
	DetailTTL  time.Duration // single-entity detail views (product by slug)
	UserTTL    time.Duration // user-scoped collections
}

// MediaConfig holds S3 configuration for review media uploads
type MediaConfig struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	KeyPrefix string
}

// SMTPConfig holds mail transport configuration for the notifier
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// PointsConfig holds the fixed award applied per committed review
type PointsConfig struct {
	ReviewAward int64
}

// Load reads configuration from environment variables and returns a Config struct
func Load() (*Config, error) {
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "marketplace_reviews")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("NATS_URL", "nats://localhost:4222")

	viper.SetDefault("CACHE_TTL_LIST", "900s")
	viper.SetDefault("CACHE_TTL_SUMMARY", "900s")
	viper.SetDefault("CACHE_TTL_DETAIL", "3600s")
	viper.SetDefault("CACHE_TTL_USER", "900s")

	viper.SetDefault("MEDIA_S3_REGION", "eu-central-1")
	viper.SetDefault("MEDIA_S3_BUCKET", "marketplace-review-media")
	viper.SetDefault("MEDIA_S3_ACCESS_KEY", "")
	viper.SetDefault("MEDIA_S3_SECRET_KEY", "")
	viper.SetDefault("MEDIA_S3_KEY_PREFIX", "reviews/media")

	viper.SetDefault("SMTP_HOST", "localhost")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USERNAME", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("SMTP_FROM", "no-reply@marketplace.local")

	viper.SetDefault("POINTS_REVIEW_AWARD", 50)

	durations := map[string]*time.Duration{
		"SERVER_READ_TIMEOUT":     nil,
		"SERVER_WRITE_TIMEOUT":    nil,
		"SERVER_SHUTDOWN_TIMEOUT": nil,
		"DB_CONN_MAX_LIFETIME":    nil,
		"CACHE_TTL_LIST":          nil,
		"CACHE_TTL_SUMMARY":       nil,
		"CACHE_TTL_DETAIL":        nil,
		"CACHE_TTL_USER":          nil,
	}
	for key := range durations {
		d, err := time.ParseDuration(viper.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		v := d
		durations[key] = &v
	}

	allowedOriginsStr := viper.GetString("CORS_ALLOWED_ORIGINS")
	allowedOrigins := strings.Split(allowedOriginsStr, ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	config := &Config{
		Env: viper.GetString("ENV"),
		Server: ServerConfig{
			Port:            viper.GetString("SERVER_PORT"),
			ReadTimeout:     *durations["SERVER_READ_TIMEOUT"],
			WriteTimeout:    *durations["SERVER_WRITE_TIMEOUT"],
			ShutdownTimeout: *durations["SERVER_SHUTDOWN_TIMEOUT"],
			AllowedOrigins:  allowedOrigins,
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetString("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: *durations["DB_CONN_MAX_LIFETIME"],
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		NATS: NATSConfig{
			URL: viper.GetString("NATS_URL"),
		},
		Cache: CacheConfig{
			ListTTL:    *durations["CACHE_TTL_LIST"],
			SummaryTTL: *durations["CACHE_TTL_SUMMARY"],
			DetailTTL:  *durations["CACHE_TTL_DETAIL"],
			UserTTL:    *durations["CACHE_TTL_USER"],
		},
		Media: MediaConfig{
			Region:    viper.GetString("MEDIA_S3_REGION"),
			Bucket:    viper.GetString("MEDIA_S3_BUCKET"),
			AccessKey: viper.GetString("MEDIA_S3_ACCESS_KEY"),
			SecretKey: viper.GetString("MEDIA_S3_SECRET_KEY"),
			KeyPrefix: viper.GetString("MEDIA_S3_KEY_PREFIX"),
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			Username: viper.GetString("SMTP_USERNAME"),
			Password: viper.GetString("SMTP_PASSWORD"),
			From:     viper.GetString("SMTP_FROM"),
		},
		Points: PointsConfig{
			ReviewAward: viper.GetInt64("POINTS_REVIEW_AWARD"),
		},
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
