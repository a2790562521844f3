package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8081"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT     JWTConfig
	Session SessionConfig
	SQLite  SQLiteConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
}

type JWTConfig struct {
	Secret         string `env:"JWT_SECRET_KEY"`
	AccessMinutes  int    `env:"JWT_ACCESS_EXPIRATION_TIME_MINUTES,  default=15"`
	RefreshMinutes int    `env:"JWT_REFRESH_EXPIRATION_TIME_MINUTES, default=10080"`
}

type SessionConfig struct {
	TTLSeconds int `env:"SESSION_EXPIRATION_TIME, default=3600"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH, default=auth.db"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type KafkaConfig struct {
	Brokers     []string `env:"KAFKA_BOOTSTRAP_SERVERS,      default=localhost:9092"`
	CreateTopic string   `env:"KAFKA_USER_CREDS_CREATE_TOPIC, default=user-creds-create"`
	DeleteTopic string   `env:"KAFKA_USER_CREDS_DELETE_TOPIC, default=user-creds-delete"`
}

// AccessTTL is the access token lifetime.
func (c JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessMinutes) * time.Minute
}

// RefreshTTL is the refresh token lifetime.
func (c JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshMinutes) * time.Minute
}

// TTL is the session lifetime.
func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
