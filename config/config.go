package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"gestao-api"`
	Version                       string   `env:"APP_VERSION" env-default:"dev"`
	Port                          int      `env:"PORT" env-default:"3000"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,PATCH,DELETE"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"15s"`

	// Platform selects how the relational engine is reached: native or web
	Platform string `env:"PLATFORM" env-default:"native"`

	// Database driver: sqlite, postgres or empty for no relational engine
	DatabaseDriver string `env:"DB_DRIVER" env-default:"sqlite"`
	// Database DSN, a file path for sqlite
	DatabaseDSN string `env:"DB_DSN" env-default:"gestao.db"`
	// Max Open Conns
	DatabaseMaxOpenConns int `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	// Max Idle Conns
	DatabaseMaxIdleConns int `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	// Conn Max Lifetime
	DatabaseConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`

	// Upper bound on waiting for storage before the fallback is forced
	StorageReadyTimeout time.Duration `env:"STORAGE_READY_TIMEOUT" env-default:"10s"`
	// Web platform bridge polling
	BridgePollInterval time.Duration `env:"BRIDGE_POLL_INTERVAL" env-default:"100ms"`
	BridgeTimeout      time.Duration `env:"BRIDGE_TIMEOUT" env-default:"5s"`
	// URL probed on the web platform; empty means the bridge is never available
	BridgeURL string `env:"BRIDGE_URL" env-default:""`

	// KVS driver: redis or memory
	KVSDriver    string `env:"KVS_DRIVER" env-default:"memory"`
	KVSKeyPrefix string `env:"KVS_KEY_PREFIX" env-default:"gestao:"`

	// Redis host
	RedisHost string `env:"REDIS_HOST" env-default:"localhost"`
	// Redis port
	RedisPort int `env:"REDIS_PORT" env-default:"6379"`
	// Redis password
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	// Redis database number
	RedisDB int `env:"REDIS_DB" env-default:"0"`

	// Kafka brokers (comma-separated); empty disables change export
	KafkaBrokers string `env:"KAFKA_BROKERS" env-default:""`
	// Kafka topic for store changes
	KafkaChangesTopic string `env:"KAFKA_CHANGES_TOPIC" env-default:"gestao-store-changes"`
	KafkaQueueSize    int    `env:"KAFKA_QUEUE_SIZE" env-default:"1024"`

	// Tracing exporter: otlp-grpc, otlp-http or empty to disable
	TracingExporter string  `env:"TRACING_EXPORTER" env-default:""`
	TracingEndpoint string  `env:"TRACING_ENDPOINT" env-default:"localhost:4317"`
	TracingInsecure bool    `env:"TRACING_INSECURE" env-default:"true"`
	TracingSampling float64 `env:"TRACING_SAMPLING_RATIO" env-default:"1"`
}

// Load reads an optional .env file, then the environment
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "failed to read .env")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to read configuration")
	}
	return cfg, nil
}
