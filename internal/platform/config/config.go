package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean. All values have development defaults; production overrides
// them per deployment.
type Config struct {
	Addr string

	// BackendBaseURL is the external case-management API root. Relative
	// deployments use "/v2" behind the same origin; absolute URLs point at
	// a separate host.
	BackendBaseURL string
	// PlacesBaseURL is the address-autocomplete collaborator.
	PlacesBaseURL string
	// BackendTimeout bounds every call to the external collaborators.
	BackendTimeout time.Duration

	// SessionTTL bounds server-side sessions; DraftTTL bounds wizard drafts
	// persisted in Redis.
	SessionTTL time.Duration
	DraftTTL   time.Duration

	// ShareTokenSigningKey signs read-only intake share links.
	ShareTokenSigningKey string
	ShareTokenTTL        time.Duration

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
}

// RedisConfig configures the optional Redis-backed stores.
type RedisConfig struct {
	// URL in redis:// form; empty disables Redis and selects the in-memory
	// stores.
	URL string
}

// PostgresConfig configures the optional Postgres-backed L2L store.
type PostgresConfig struct {
	// DSN in lib/pq form; empty disables Postgres and selects the
	// in-memory store.
	DSN string
}

// KafkaConfig configures the optional audit event sink.
type KafkaConfig struct {
	// Brokers is a comma-separated seed list; empty disables the sink.
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:                 envOr("CASEFLOW_ADDR", ":8080"),
		BackendBaseURL:       envOr("CASEFLOW_BACKEND_URL", "/v2"),
		PlacesBaseURL:        os.Getenv("CASEFLOW_PLACES_URL"),
		BackendTimeout:       envDuration("CASEFLOW_BACKEND_TIMEOUT", 15*time.Second),
		SessionTTL:           envDuration("CASEFLOW_SESSION_TTL", 12*time.Hour),
		DraftTTL:             envDuration("CASEFLOW_DRAFT_TTL", 24*time.Hour),
		ShareTokenSigningKey: envOr("CASEFLOW_SHARE_SIGNING_KEY", "dev-secret-key-change-in-production"),
		ShareTokenTTL:        envDuration("CASEFLOW_SHARE_TOKEN_TTL", 72*time.Hour),
		Redis: RedisConfig{
			URL: os.Getenv("CASEFLOW_REDIS_URL"),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("CASEFLOW_POSTGRES_DSN"),
		},
		Kafka: KafkaConfig{
			Topic: envOr("CASEFLOW_KAFKA_AUDIT_TOPIC", "caseflow.audit"),
		},
	}
	if brokers := os.Getenv("CASEFLOW_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Accept plain seconds for operators who skip the unit suffix.
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
