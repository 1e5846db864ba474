// Package config manages application configuration from environment variables and .env files.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendNeo4j    = "neo4j"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds the application configuration.
type Config struct {
	Backend string

	Neo4jURI           string
	Neo4jUsername      string
	Neo4jPassword      string
	Neo4jDatabase      string
	Neo4jImage         string
	Neo4jContainerName string

	DatabaseURL           string
	PostgresPassword      string
	PostgresImage         string
	PostgresContainerName string

	RedisAddr          string
	RedisChannelPrefix string

	CatalogPath string
	FixturePath string
	Timezone    string
	LogLevel    string
}

// defaults holds every known key and its default. An empty default means
// the key is unset unless configured.
var defaults = map[string]string{
	"GAMEPLAN_BACKEND":        BackendNeo4j,
	"NEO4J_URI":               "neo4j://localhost:7687",
	"NEO4J_USERNAME":          "neo4j",
	"NEO4J_PASSWORD":          "",
	"NEO4J_DATABASE":          "neo4j",
	"NEO4J_IMAGE":             "neo4j:5.25-community",
	"NEO4J_CONTAINER_NAME":    "gameplan-neo4j",
	"DATABASE_URL":            "",
	"POSTGRES_PASSWORD":       "",
	"POSTGRES_IMAGE":          "postgres:16-alpine",
	"POSTGRES_CONTAINER_NAME": "gameplan-postgres",
	"REDIS_ADDR":              "",
	"REDIS_CHANNEL_PREFIX":    "gameplan",
	"GAMEPLAN_CATALOG":        "",
	"GAMEPLAN_FIXTURE":        "",
	"GAMEPLAN_TIMEZONE":       "Local",
	"GAMEPLAN_LOG_LEVEL":      "info",
}

// Keys returns every configuration key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKnownKey reports whether key is a configuration key.
func IsKnownKey(key string) bool {
	_, ok := defaults[key]
	return ok
}

// layers resolves a key from the first layer that has a non-empty value,
// then the process environment, then the default.
type layers []map[string]string

func (l layers) lookup(key string) string {
	for _, m := range l {
		if value, ok := m[key]; ok && value != "" {
			return value
		}
	}
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaults[key]
}

func (l layers) config() *Config {
	return &Config{
		Backend:               strings.ToLower(l.lookup("GAMEPLAN_BACKEND")),
		Neo4jURI:              l.lookup("NEO4J_URI"),
		Neo4jUsername:         l.lookup("NEO4J_USERNAME"),
		Neo4jPassword:         l.lookup("NEO4J_PASSWORD"),
		Neo4jDatabase:         l.lookup("NEO4J_DATABASE"),
		Neo4jImage:            l.lookup("NEO4J_IMAGE"),
		Neo4jContainerName:    l.lookup("NEO4J_CONTAINER_NAME"),
		DatabaseURL:           l.lookup("DATABASE_URL"),
		PostgresPassword:      l.lookup("POSTGRES_PASSWORD"),
		PostgresImage:         l.lookup("POSTGRES_IMAGE"),
		PostgresContainerName: l.lookup("POSTGRES_CONTAINER_NAME"),
		RedisAddr:             l.lookup("REDIS_ADDR"),
		RedisChannelPrefix:    l.lookup("REDIS_CHANNEL_PREFIX"),
		CatalogPath:           l.lookup("GAMEPLAN_CATALOG"),
		FixturePath:           l.lookup("GAMEPLAN_FIXTURE"),
		Timezone:              l.lookup("GAMEPLAN_TIMEZONE"),
		LogLevel:              l.lookup("GAMEPLAN_LOG_LEVEL"),
	}
}

// readEnvFile returns the pairs of an env file, or an empty map if it
// cannot be read.
func readEnvFile(path string) map[string]string {
	envMap, err := godotenv.Read(path)
	if err != nil {
		return make(map[string]string)
	}
	return envMap
}

// Load reads configuration from a .env file in the specified directory.
// Values resolve local .env > global config (~/.gameplan/config) >
// environment > default.
func Load(dir string) (*Config, error) {
	cfg := layers{
		readEnvFile(GetConfigPath(dir)),
		readEnvFile(GetGlobalConfigPath()),
	}.config()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the fields required by the selected backend are set
// and that the timezone and log level parse.
func (c *Config) Validate() error {
	var missing []string

	switch c.Backend {
	case BackendNeo4j:
		if c.Neo4jURI == "" {
			missing = append(missing, "NEO4J_URI")
		}
		if c.Neo4jUsername == "" {
			missing = append(missing, "NEO4J_USERNAME")
		}
		if c.Neo4jPassword == "" {
			missing = append(missing, "NEO4J_PASSWORD")
		}
		if c.Neo4jDatabase == "" {
			missing = append(missing, "NEO4J_DATABASE")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" && c.PostgresPassword == "" {
			missing = append(missing, "DATABASE_URL or POSTGRES_PASSWORD")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown GAMEPLAN_BACKEND %q: must be one of %s, %s, %s",
			c.Backend, BackendNeo4j, BackendPostgres, BackendMemory)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration fields: %s", strings.Join(missing, ", "))
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Location returns the timezone that defines "today".
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid GAMEPLAN_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid GAMEPLAN_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// GetConfigPath returns the full path to the .env file in the given directory.
func GetConfigPath(dir string) string {
	return filepath.Join(dir, ".env")
}

// Set updates or creates a configuration value in the .env file.
func Set(dir, key, value string) error {
	return writeKey(GetConfigPath(dir), key, value)
}

// Get retrieves a configuration value from the .env file.
func Get(dir, key string) (string, error) {
	envMap, err := godotenv.Read(GetConfigPath(dir))
	if err != nil {
		return "", fmt.Errorf("failed to read config: %w", err)
	}

	value, ok := envMap[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in configuration", key)
	}
	return value, nil
}

// Resolved returns the effective value of every key for dir, the way Load
// would see them.
func Resolved(dir string) map[string]string {
	l := layers{
		readEnvFile(GetConfigPath(dir)),
		readEnvFile(GetGlobalConfigPath()),
	}
	out := make(map[string]string, len(defaults))
	for k := range defaults {
		out[k] = l.lookup(k)
	}
	return out
}

func writeKey(path, key, value string) error {
	envMap := readEnvFile(path)
	envMap[key] = value
	return godotenv.Write(envMap, path)
}
