package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot.
type Config struct {
	App      AppConfig
	Telegram TelegramConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Reminder ReminderConfig
	Ops      OpsConfig
}

// AppConfig controls service level behavior.
type AppConfig struct {
	Name    string
	Env     string
	Version string
}

// TelegramConfig holds bot transport settings.
type TelegramConfig struct {
	Token              string
	PollTimeoutSeconds int
	RateLimitPerMinute int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	SessionTTL time.Duration
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// ReminderConfig drives the stale-ticket digest job.
type ReminderConfig struct {
	Enabled       bool
	CronSpec      string
	StaleAfterMin int
}

// OpsConfig configures the health/metrics HTTP listener.
type OpsConfig struct {
	Host string
	Port string
}

// Load reads configuration from environment variables, applying defaults
// where possible. TELEGRAM_BOT_TOKEN is the only required value.
func Load() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "support-desk-bot"),
			Env:     getEnv("APP_ENV", "development"),
			Version: getEnv("APP_VERSION", "dev"),
		},
		Telegram: TelegramConfig{
			Token:              token,
			PollTimeoutSeconds: getEnvAsInt("TELEGRAM_POLL_TIMEOUT_SECONDS", 60),
			RateLimitPerMinute: getEnvAsInt("TELEGRAM_RATE_LIMIT_PER_MINUTE", 20),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:   os.Getenv("REDIS_PASSWORD"),
			DB:         redisDB,
			SessionTTL: time.Duration(getEnvAsInt("SESSION_TTL_MINUTES", 30)) * time.Minute,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Reminder: ReminderConfig{
			Enabled:       getEnvAsBool("REMINDER_ENABLED", true),
			CronSpec:      getEnv("REMINDER_CRON", "0 * * * *"),
			StaleAfterMin: getEnvAsInt("REMINDER_STALE_AFTER_MINUTES", 240),
		},
		Ops: OpsConfig{
			Host: getEnv("OPS_HOST", "0.0.0.0"),
			Port: getEnv("OPS_PORT", "8080"),
		},
	}

	return cfg, nil
}

// Addr returns the ops HTTP bind address.
func (o OpsConfig) Addr() string {
	return fmt.Sprintf("%s:%s", o.Host, o.Port)
}

// StaleAfter returns the duration after which an untouched ticket is
// considered stale.
func (r ReminderConfig) StaleAfter() time.Duration {
	if r.StaleAfterMin <= 0 {
		return 0
	}
	return time.Duration(r.StaleAfterMin) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
