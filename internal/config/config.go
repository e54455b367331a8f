// Package config loads server configuration from the environment and,
// optionally, a modules file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	ListenAddr string
	LogLevel   string
	LogFormat  string

	// Store is "memory" or "postgres".
	Store       string
	PostgresDSN string
	MigrateDir  string

	// RedisAddr enables Redis-backed presence when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret      string
	AllowedOrigins []string
	RateLimit      int
	RateBurst      int

	// AuthUsersFile points at a YAML credentials file for /auth/token.
	AuthUsersFile string
	TokenTTL      time.Duration

	PresenceTTL    time.Duration
	TrashRetention time.Duration
	ScriptTimeout  time.Duration

	// AuditFile receives the audit trail as JSONL when set.
	AuditFile string
	AuditSize int

	Modules Modules
}

// Modules enables or disables optional feature areas. Everything defaults
// to on.
type Modules struct {
	Collab    bool `yaml:"collab"`
	Sheets    bool `yaml:"sheets"`
	HR        bool `yaml:"hr"`
	Scripts   bool `yaml:"scripts"`
	Analytics bool `yaml:"analytics"`
	Reports   bool `yaml:"reports"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present. WORKSUITE_MODULES may
// point at a YAML modules file.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		Store:          strings.ToLower(getEnv("STORE", "memory")),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		MigrateDir:     getEnv("MIGRATE_DIR", "migrations"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		AuditFile:      os.Getenv("AUDIT_FILE"),
		AuthUsersFile:  os.Getenv("AUTH_USERS_FILE"),
		Modules: Modules{
			Collab:    true,
			Sheets:    true,
			HR:        true,
			Scripts:   true,
			Analytics: true,
			Reports:   true,
		},
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit, err = getEnvInt("RATE_LIMIT", 50); err != nil {
		return Config{}, err
	}
	if cfg.RateBurst, err = getEnvInt("RATE_BURST", 100); err != nil {
		return Config{}, err
	}
	if cfg.AuditSize, err = getEnvInt("AUDIT_SIZE", 0); err != nil {
		return Config{}, err
	}
	if cfg.PresenceTTL, err = getEnvDuration("PRESENCE_TTL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.TrashRetention, err = getEnvDuration("TRASH_RETENTION", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ScriptTimeout, err = getEnvDuration("SCRIPT_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = getEnvDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}

	if path := os.Getenv("WORKSUITE_MODULES"); path != "" {
		if err := loadModules(path, &cfg.Modules); err != nil {
			return Config{}, err
		}
	}

	if cfg.Store != "memory" && cfg.Store != "postgres" {
		return Config{}, fmt.Errorf("unknown store %q", cfg.Store)
	}
	if cfg.Store == "postgres" && cfg.PostgresDSN == "" {
		return Config{}, fmt.Errorf("STORE=postgres requires POSTGRES_DSN")
	}
	return cfg, nil
}

func loadModules(path string, modules *Modules) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read modules file: %w", err)
	}
	if err := yaml.Unmarshal(data, modules); err != nil {
		return fmt.Errorf("parse modules file: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
