package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	JWTSecret string `env:"JWT_SECRET"`

	// TokenTTL bounds the lifetime of issued session tokens.
	TokenTTL time.Duration `env:"TOKEN_TTL, default=24h"`

	// EncryptionKey is the base64-encoded 256-bit key for the report
	// details field. Any encrypt/decrypt attempt fails without it.
	EncryptionKey string `env:"ENCRYPTION_KEY"`

	Mongo MongoConfig
	Redis RedisConfig
	Jobs  JobsConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=fieldops"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type JobsConfig struct {
	// CleanupRetentionDays is the age past which terminal missions are
	// eligible for deletion.
	CleanupRetentionDays int           `env:"CLEANUP_RETENTION_DAYS, default=365"`
	CleanupInterval      time.Duration `env:"CLEANUP_INTERVAL,       default=24h"`
	OverdueCheckInterval time.Duration `env:"OVERDUE_CHECK_INTERVAL, default=10m"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
