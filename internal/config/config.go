package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for the policy filters. They reproduce the catalog cleanup
// rules the business mandates; override via environment when they are
// revisited.
var (
	defaultExcludedTypeNames = []string{"sports"}
	defaultBlockedModelNames = []string{"Maruti Swift", "Mahindra Scorpio", "Honda City"}
)

// ServiceConfig holds all configuration for the wizard service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	CatalogBaseURL string
	DatabaseURL    string
	KafkaBrokers   []string

	ExcludedTypeNames []string
	BlockedModelNames []string

	SessionTTL time.Duration
}

// Load reads configuration from environment variables, merging in a
// local .env file when present.
func Load() (*ServiceConfig, error) {
	_ = godotenv.Load()

	cfg := &ServiceConfig{
		Port:              servicePort("WIZARD_SERVICE_PORT", ":8086"),
		AppEnv:            getEnv("APP_ENV", "development"),
		CatalogBaseURL:    getEnv("CATALOG_BASE_URL", "http://localhost:5000"),
		DatabaseURL:       getEnv("DATABASE_URL", "wizard.db"),
		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		ExcludedTypeNames: listEnv("EXCLUDED_TYPE_NAMES", defaultExcludedTypeNames),
		BlockedModelNames: listEnv("BLOCKED_MODEL_NAMES", defaultBlockedModelNames),
		SessionTTL:        durationEnv("SESSION_TTL", 30*time.Minute),
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func servicePort(key, fallback string) string {
	port := getEnv(key, fallback)
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func listEnv(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		return splitList(v)
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
