package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Kafka      KafkaConfig
	Redis      RedisConfig
	MarketData MarketDataConfig
	Log        LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	Migrations string
	Enabled    bool
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers      []string
	RequestTopic string
	ResultTopic  string
	GroupID      string
	Enabled      bool
}

// RedisConfig holds the optional market data cache backend; an empty Addr disables it
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MarketDataConfig holds market data provider settings
type MarketDataConfig struct {
	BaseURL  string
	Timeout  time.Duration
	CacheDir string
	CacheTTL time.Duration
	RPS      float64
	Burst    int
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables, after loading a .env file if present
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", "postgres"),
			DBName:     getEnv("DB_NAME", "valuations"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			Migrations: getEnv("DB_MIGRATIONS", "db/migrations"),
			Enabled:    getEnvBool("DB_ENABLED", false),
		},
		Kafka: KafkaConfig{
			Brokers:      splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			RequestTopic: getEnv("KAFKA_REQUEST_TOPIC", "valuation-requests"),
			ResultTopic:  getEnv("KAFKA_RESULT_TOPIC", "valuation-results"),
			GroupID:      getEnv("KAFKA_GROUP_ID", "position-valuator"),
			Enabled:      getEnvBool("KAFKA_ENABLED", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		MarketData: MarketDataConfig{
			BaseURL:  getEnv("MARKET_DATA_BASE_URL", "https://query1.finance.yahoo.com"),
			Timeout:  getEnvDuration("MARKET_DATA_TIMEOUT", 20*time.Second),
			CacheDir: getEnv("MARKET_DATA_CACHE_DIR", ".cache_market_data"),
			CacheTTL: getEnvDuration("MARKET_DATA_CACHE_TTL", 6*time.Hour),
			RPS:      getEnvFloat("MARKET_DATA_RPS", 2),
			Burst:    getEnvInt("MARKET_DATA_BURST", 4),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

// Addr returns the HTTP listen address
func (s *ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
