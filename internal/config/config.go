// Package config loads server settings from .env, the environment and flags,
// in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type Config struct {
	HTTPAddr string `validate:"required"`
	GRPCAddr string `validate:"required"`
	MySQLDSN string `validate:"required"`

	RedisAddr     string `validate:"required,hostname_port"`
	RedisPoolSize int    `validate:"min=1"`

	Workers      int           `validate:"min=1,max=256"`
	QueueSize    int           `validate:"min=1"`
	WorkTimeout  time.Duration `validate:"min=1s"`
	LockTTL      time.Duration `validate:"min=1s"`
	ItemsFile    string
	ItemCacheLen int `validate:"min=1"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`
	Env       string
}

func defaults() Config {
	return Config{
		HTTPAddr:      ":8080",
		GRPCAddr:      ":50051",
		MySQLDSN:      "root:root@tcp(localhost:3306)/assetvault?parseTime=true",
		RedisAddr:     "localhost:6379",
		RedisPoolSize: 100,
		Workers:       4,
		QueueSize:     1000,
		WorkTimeout:   30 * time.Second,
		LockTTL:       time.Minute,
		ItemCacheLen:  20000,
		LogLevel:      "info",
		LogFormat:     "json",
		Env:           "local",
	}
}

// Load reads .env when present, then the ASSETVAULT_* environment, then args.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if err := fromEnv(&cfg); err != nil {
		return nil, err
	}

	flagSet := pflag.NewFlagSet("asset-vault", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	flagSet.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "gRPC listen address")
	flagSet.StringVar(&cfg.MySQLDSN, "mysql-dsn", cfg.MySQLDSN, "MySQL data source name")
	flagSet.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address")
	flagSet.IntVar(&cfg.RedisPoolSize, "redis-pool-size", cfg.RedisPoolSize, "Redis connection pool size")
	flagSet.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of refresh workers")
	flagSet.IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "refresh queue capacity")
	flagSet.DurationVar(&cfg.WorkTimeout, "work-timeout", cfg.WorkTimeout, "timeout for one refresh")
	flagSet.DurationVar(&cfg.LockTTL, "lock-ttl", cfg.LockTTL, "per-owner refresh lock TTL")
	flagSet.StringVar(&cfg.ItemsFile, "items-file", cfg.ItemsFile, "YAML item catalog used when MySQL has no entry")
	flagSet.IntVar(&cfg.ItemCacheLen, "item-cache-size", cfg.ItemCacheLen, "item catalog LRU size")
	flagSet.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flagSet.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "json or console")
	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func fromEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	str("ASSETVAULT_HTTP_ADDR", &cfg.HTTPAddr)
	str("ASSETVAULT_GRPC_ADDR", &cfg.GRPCAddr)
	str("ASSETVAULT_MYSQL_DSN", &cfg.MySQLDSN)
	str("ASSETVAULT_REDIS_ADDR", &cfg.RedisAddr)
	str("ASSETVAULT_ITEMS_FILE", &cfg.ItemsFile)
	str("ASSETVAULT_LOG_LEVEL", &cfg.LogLevel)
	str("ASSETVAULT_LOG_FORMAT", &cfg.LogFormat)
	str("APP_ENV", &cfg.Env)

	ints := map[string]*int{
		"ASSETVAULT_REDIS_POOL_SIZE": &cfg.RedisPoolSize,
		"ASSETVAULT_WORKERS":         &cfg.Workers,
		"ASSETVAULT_QUEUE_SIZE":      &cfg.QueueSize,
		"ASSETVAULT_ITEM_CACHE_SIZE": &cfg.ItemCacheLen,
	}
	for key, dst := range ints {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"ASSETVAULT_WORK_TIMEOUT": &cfg.WorkTimeout,
		"ASSETVAULT_LOCK_TTL":     &cfg.LockTTL,
	}
	for key, dst := range durations {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}
	return nil
}
