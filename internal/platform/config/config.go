package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const devSigningKey = "dev-secret-key-change-in-production"

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"COLIVING_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"COLIVING_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	ReadTimeout     time.Duration `env:"COLIVING_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"COLIVING_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"COLIVING_IDLE_TIMEOUT" envDefault:"60s"`
	CORSOrigins     []string      `env:"COLIVING_CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	Environment     string        `env:"COLIVING_ENV" envDefault:"development"`
}

// Auth configures token issuance and validation.
type Auth struct {
	JWTSigningKey string        `env:"JWT_SIGNING_KEY"`
	JWTIssuer     string        `env:"JWT_ISSUER" envDefault:"coliving"`
	TokenTTL      time.Duration `env:"JWT_TTL" envDefault:"1h"`
	BcryptCost    int           `env:"BCRYPT_COST" envDefault:"12"`

	LoginAttempts     int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginWindow       time.Duration `env:"LOGIN_ATTEMPT_WINDOW" envDefault:"15m"`
	LoginLockDuration time.Duration `env:"LOGIN_LOCK_DURATION" envDefault:"15m"`

	// BootstrapAdminEmail, when set, creates an ADMIN account at startup if the
	// email is not registered yet.
	BootstrapAdminEmail    string `env:"COLIVING_BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `env:"COLIVING_BOOTSTRAP_ADMIN_PASSWORD"`
}

// Database selects PostgreSQL stores. An empty URL selects in-memory stores.
type Database struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// RedisConfig backs the token revocation list and the login lockout. An empty
// URL keeps both in process.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Kafka configures the outbox relay.
type Kafka struct {
	Brokers      []string      `env:"KAFKA_BROKERS" envSeparator:","`
	Topic        string        `env:"KAFKA_AUDIT_TOPIC" envDefault:"coliving.audit"`
	Partitions   int32         `env:"KAFKA_AUDIT_PARTITIONS" envDefault:"3"`
	Replication  int16         `env:"KAFKA_AUDIT_REPLICATION" envDefault:"1"`
	PollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"1s"`
	BatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
}

// Tracing enables the OTLP exporter when an endpoint is set.
type Tracing struct {
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"coliving"`
	Insecure    bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
}

// Config is the full process configuration.
type Config struct {
	Server   Server
	Auth     Auth
	Database Database
	Redis    RedisConfig
	Kafka    Kafka
	Tracing  Tracing
}

// FromEnv builds the configuration from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) finalize() error {
	if c.Auth.JWTSigningKey == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SIGNING_KEY is required in production")
		}
		c.Auth.JWTSigningKey = devSigningKey
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if (c.Auth.BootstrapAdminEmail == "") != (c.Auth.BootstrapAdminPassword == "") {
		return fmt.Errorf("COLIVING_BOOTSTRAP_ADMIN_EMAIL and COLIVING_BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	c.Server.CORSOrigins = trimAll(c.Server.CORSOrigins)
	c.Kafka.Brokers = trimAll(c.Kafka.Brokers)
	return nil
}

// IsProduction reports whether the process runs with production safeguards.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
