package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Quotes    QuotesConfig
	Auth      AuthConfig
	Log       LogConfig
	Watchlist WatchlistConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string `validate:"required"`
	Host            string
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	CORSOrigins     []string
}

// DatabaseConfig holds database configuration. Driver is postgres or sqlite.
type DatabaseConfig struct {
	Driver     string `validate:"oneof=postgres sqlite"`
	URL        string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled         bool
	ConsumerEnabled bool
	Brokers         []string
	Topic           string
	GroupID         string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int `validate:"gte=0"`
}

// QuotesConfig selects and tunes the quote source
type QuotesConfig struct {
	Source              string        `validate:"oneof=yahoo polygon"`
	YahooBaseURL        string        `validate:"omitempty,url"`
	Proxy               string        `validate:"omitempty,url"`
	PolygonAPIKey       string        `validate:"required_if=Source polygon"`
	Timeout             time.Duration `validate:"gt=0"`
	BreakerMaxFailures  int           `validate:"gt=0"`
	BreakerResetTimeout time.Duration `validate:"gt=0"`
}

// AuthConfig holds token settings
type AuthConfig struct {
	JWTSecret string        `validate:"required"`
	TokenTTL  time.Duration `validate:"gt=0"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
	Output string
}

// WatchlistConfig holds watchlist mutation settings
type WatchlistConfig struct {
	LockMode string        `validate:"oneof=local redis none"`
	LockTTL  time.Duration `validate:"gt=0"`
	LockWait time.Duration `validate:"gt=0"`
}

// Load reads configuration from environment variables, after loading a
// .env file from the working directory if one exists
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			URL:        getEnv("DATABASE_URL", ""),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", "postgres"),
			DBName:     getEnv("DB_NAME", "watchlist"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "watchlist.db"),
		},
		Kafka: KafkaConfig{
			Enabled:         getEnvBool("KAFKA_ENABLED", false),
			ConsumerEnabled: getEnvBool("KAFKA_CONSUMER_ENABLED", false),
			Brokers:         getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:           getEnv("KAFKA_TOPIC", "watchlist-events"),
			GroupID:         getEnv("KAFKA_GROUP_ID", "watchlist-audit"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Quotes: QuotesConfig{
			Source:              getEnv("QUOTE_SOURCE", "yahoo"),
			YahooBaseURL:        getEnv("YAHOO_BASE_URL", ""),
			Proxy:               getEnv("QUOTE_PROXY", ""),
			PolygonAPIKey:       getEnv("POLYGON_API_KEY", ""),
			Timeout:             getEnvDuration("QUOTE_TIMEOUT", 15*time.Second),
			BreakerMaxFailures:  getEnvInt("QUOTE_BREAKER_MAX_FAILURES", 5),
			BreakerResetTimeout: getEnvDuration("QUOTE_BREAKER_RESET", 30*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
		Watchlist: WatchlistConfig{
			LockMode: getEnv("WATCHLIST_LOCK", "local"),
			LockTTL:  getEnvDuration("WATCHLIST_LOCK_TTL", 10*time.Second),
			LockWait: getEnvDuration("WATCHLIST_LOCK_WAIT", 5*time.Second),
		},
	}
}

// Validate checks the configuration for missing or inconsistent values
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Watchlist.LockMode == "redis" && c.Redis.Addr == "" {
		return errors.New("invalid configuration: WATCHLIST_LOCK=redis requires REDIS_ADDR")
	}
	if (c.Kafka.Enabled || c.Kafka.ConsumerEnabled) && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return errors.New("invalid configuration: kafka requires KAFKA_BROKERS and KAFKA_TOPIC")
	}
	return nil
}

// DSN returns the connection string for the configured driver
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.SQLitePath
	}
	if d.URL != "" {
		return d.URL
	}
	return d.ConnectionString()
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
