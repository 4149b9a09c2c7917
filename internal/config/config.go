package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config reúne toda la configuración del servicio. Las dependencias externas
// (Postgres, Mongo, ClickHouse, Redis, Kafka) son opcionales: con el valor
// vacío el arranque cae a los adaptadores locales o en memoria.
type Config struct {
	HTTPPort string
	LogLevel string

	// Orígenes de datos del catálogo.
	SQLitePath     string
	ArticlesJSON   string
	PostgresDSN    string
	MongoURI       string
	ClickhouseAddr string

	// Infraestructura ambiente.
	RedisAddr         string
	KafkaBrokers      []string
	KafkaTopicListing string
	CacheTTL          time.Duration

	// Comportamiento del listado.
	DefaultPageSize int
	SeedArticles    int
}

func LoadConfig() *Config {
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}
	getEnvInt := func(key string, fallback int) int {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				return n
			}
		}
		return fallback
	}

	var kafkaBrokers []string
	if raw := getEnv("KAFKA_BROKERS", ""); raw != "" {
		kafkaBrokers = strings.Split(raw, ",")
	}

	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SQLitePath:     getEnv("SQLITE_PATH", "./paginalab.db"),
		ArticlesJSON:   getEnv("ARTICLES_JSON", "./articles.json"),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),
		MongoURI:       getEnv("MONGO_URI", ""),
		ClickhouseAddr: getEnv("CLICKHOUSE_ADDR", ""),

		RedisAddr:         getEnv("REDIS_ADDR", ""),
		KafkaBrokers:      kafkaBrokers,
		KafkaTopicListing: getEnv("KAFKA_TOPIC", "listing-events"),
		CacheTTL:          5 * time.Minute,

		DefaultPageSize: getEnvInt("DEFAULT_PAGE_SIZE", 10),
		SeedArticles:    getEnvInt("SEED_ARTICLES", 60),
	}
}
