// Package postgres stores the day plan sources in PostgreSQL, one table per
// source with rows scoped by user_id.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/fitz/gameplan/internal/retry"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Client wraps a pgx connection pool.
type Client struct {
	pool *pgxpool.Pool
}

// Config holds PostgreSQL connection configuration. URL, when set, wins over
// the individual fields.
type Config struct {
	URL      string
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// ConfigFromEnv creates a Config from environment variables
func ConfigFromEnv() Config {
	return Config{
		URL:      os.Getenv("DATABASE_URL"),
		Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
		Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		Username: getEnvOrDefault("POSTGRES_USER", "gameplan"),
		Password: getEnvOrDefault("POSTGRES_PASSWORD", "password"),
		Database: getEnvOrDefault("POSTGRES_DB", "gameplan"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// DSN returns the PostgreSQL connection string
func (c Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.Username, c.Password, c.Database,
	)
}

// NewClient connects, pings and applies the schema.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Client{pool: pool}, nil
}

// NewClientWithRetry keeps trying NewClient while the database starts up.
// A nil opts uses retry.Default().
func NewClientWithRetry(ctx context.Context, cfg Config, opts *retry.Options) (*Client, error) {
	o := retry.Default()
	if opts != nil {
		o = *opts
	}
	var client *Client
	err := retry.Do(ctx, o, func() error {
		c, err := NewClient(ctx, cfg)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Close closes the pool
func (c *Client) Close(ctx context.Context) error {
	c.pool.Close()
	return nil
}

// Pool returns the underlying pool for direct queries
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}
