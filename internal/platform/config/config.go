// Package config loads process configuration from the environment so main
// stays lean. Every knob has a development default; production deployments
// override via env vars.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates all process configuration.
type Config struct {
	Server       Server
	Postgres     Postgres
	Redis        RedisConfig
	Kafka        Kafka
	SMS          SMS
	JWT          JWT
	Verification Verification
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Postgres holds the relational store configuration. An empty URL means the
// in-memory stores are used instead.
type Postgres struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the audit event publisher. Empty brokers disable it and
// audit events stay in-process.
type Kafka struct {
	Brokers    []string
	AuditTopic string
}

// SMS selects and configures the outbound SMS gateway.
type SMS struct {
	Backend          string // "console" or "twilio"
	AppName          string
	Timeout          time.Duration
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
}

// JWT configures access-token issuance for verified accounts.
type JWT struct {
	SigningKey     string
	AccessTokenTTL time.Duration
}

// Verification controls the phone verification state machine.
type Verification struct {
	CodeLength     int
	CodeTTL        time.Duration
	ResendCooldown time.Duration
}

// FromEnv builds the full configuration from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envString("AFRIDIO_ADDR", ":8080"),
			ShutdownTimeout: envDuration("AFRIDIO_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: Postgres{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:    envList("KAFKA_BROKERS"),
			AuditTopic: envString("KAFKA_AUDIT_TOPIC", "afridio.audit.events"),
		},
		SMS: SMS{
			Backend:          envString("SMS_BACKEND", "console"),
			AppName:          envString("SMS_APP_NAME", "Afridio"),
			Timeout:          envDuration("SMS_TIMEOUT", 10*time.Second),
			TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			TwilioFrom:       os.Getenv("TWILIO_FROM_NUMBER"),
		},
		JWT: JWT{
			SigningKey:     envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			AccessTokenTTL: envDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute),
		},
		Verification: Verification{
			CodeLength:     envInt("OTP_CODE_LENGTH", 6),
			CodeTTL:        envDuration("OTP_CODE_TTL", time.Hour),
			ResendCooldown: envDuration("OTP_RESEND_COOLDOWN", 5*time.Minute),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
