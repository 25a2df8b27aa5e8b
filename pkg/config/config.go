package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Realtime  RealtimeConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080"`
	Host               string        `envconfig:"HOST" default:"0.0.0.0"`
	Environment        string        `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins     []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"100"`
	TrustedProxies     []string      `envconfig:"TRUSTED_PROXIES"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver      string `envconfig:"STORE_DRIVER" default:"postgres"`
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"supervote"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled       bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Host          string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port          string        `envconfig:"REDIS_PORT" default:"6379"`
	Password      string        `envconfig:"REDIS_PASSWORD"`
	DB            int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"300s"`
	EventsChannel string        `envconfig:"REDIS_EVENTS_CHANNEL" default:"supervote:events"`
}

// JWTConfig holds organizer token configuration
type JWTConfig struct {
	Secret string        `envconfig:"JWT_SECRET" default:"change-me-in-production"`
	Expiry time.Duration `envconfig:"JWT_EXPIRY" default:"24h"`
}

// RealtimeConfig holds websocket fan-out configuration
type RealtimeConfig struct {
	MaxConnectionsPerIP int           `envconfig:"WS_MAX_CONNECTIONS_PER_IP" default:"10"`
	SendQueueSize       int           `envconfig:"WS_SEND_QUEUE_SIZE" default:"64"`
	WriteTimeout        time.Duration `envconfig:"WS_WRITE_TIMEOUT" default:"10s"`
	PongWait            time.Duration `envconfig:"WS_PONG_WAIT" default:"60s"`
	ReadLimit           int64         `envconfig:"WS_READ_LIMIT" default:"4096"`
}

// SchedulerConfig holds background sweep configuration
type SchedulerConfig struct {
	RoomSweepInterval time.Duration `envconfig:"ROOM_SWEEP_INTERVAL" default:"1h"`
	PollSweepInterval time.Duration `envconfig:"POLL_SWEEP_INTERVAL" default:"10s"`
	RoomTTL           time.Duration `envconfig:"ROOM_TTL" default:"24h"`
	SweepTimeout      time.Duration `envconfig:"SWEEP_TIMEOUT" default:"1m"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	switch c.Database.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.Database.Driver)
	}
	if c.IsProduction() && c.JWT.Secret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.Realtime.MaxConnectionsPerIP < 0 {
		return fmt.Errorf("WS_MAX_CONNECTIONS_PER_IP cannot be negative")
	}
	if c.Scheduler.RoomSweepInterval <= 0 || c.Scheduler.PollSweepInterval <= 0 {
		return fmt.Errorf("sweep intervals must be positive")
	}
	if c.Scheduler.RoomTTL <= 0 {
		return fmt.Errorf("ROOM_TTL must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
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
